// Package registry declares the collaborator boundaries the factory
// consumes: the module registry, which resolves module identifiers to
// code artifacts and records accounts and namespaces, and the
// sub-component factory, which prices module installations.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/chainsafe/account-factory/pkg/account"
	"github.com/chainsafe/account-factory/pkg/funds"
)

// Sentinel errors shared by registry implementations.
var (
	// ErrModuleNotFound reports an identifier with no catalog entry.
	ErrModuleNotFound = errors.New("module not found")
	// ErrNamespaceTaken reports a namespace already claimed by another account.
	ErrNamespaceTaken = errors.New("namespace already claimed")
	// ErrAccountExists reports an account identifier already registered.
	ErrAccountExists = errors.New("account already registered")
	// ErrDeploymentMismatch reports a deployed entity that does not match
	// the module it was expected to run.
	ErrDeploymentMismatch = errors.New("deployed entity mismatch")
)

// Namespace length limits.
const (
	MinNamespaceLength = 3
	MaxNamespaceLength = 32
)

// ValidateNamespace checks the syntactic form of a namespace claim:
// 3..32 characters of lowercase letters, digits and dashes, starting
// and ending alphanumeric.
func ValidateNamespace(namespace string) error {
	if len(namespace) < MinNamespaceLength || len(namespace) > MaxNamespaceLength {
		return fmt.Errorf("namespace must be %d-%d characters", MinNamespaceLength, MaxNamespaceLength)
	}
	for i, r := range namespace {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		case r == '-' && i != 0 && i != len(namespace)-1:
		default:
			return fmt.Errorf("namespace contains invalid character %q", r)
		}
	}
	return nil
}

// ModuleInstall is one requested sub-component installation, carried to
// the controller instantiation and priced by the component factory.
type ModuleInstall struct {
	ModuleID    string          `json:"module_id"`
	InitPayload json.RawMessage `json:"init_payload,omitzero"`
}

// Registration is the account record a creation run enters into the
// registry. Fee is the namespace registration fee forwarded with the
// claim; it is empty when no namespace is claimed.
type Registration struct {
	AccountID   account.ID                 `json:"account_id"`
	Base        account.Base               `json:"base"`
	Governance  account.ResolvedGovernance `json:"governance"`
	Name        string                     `json:"name"`
	Description string                     `json:"description,omitzero"`
	Link        string                     `json:"link,omitzero"`
	Namespace   string                     `json:"namespace,omitzero"`
	BaseAsset   string                     `json:"base_asset,omitzero"`
	Fee         funds.Funds                `json:"fee,omitzero"`
}

// Registry resolves module identifiers to descriptors and records
// accounts and namespace claims.
//
//go:generate mockery --name Registry --output mocks --outpkg mocks --filename mock_registry.go --with-expecter
type Registry interface {
	// ResolveModule resolves the latest version of the module.
	ResolveModule(ctx context.Context, moduleID string) (account.ModuleDescriptor, error)

	// ResolveModules resolves the latest version of each module,
	// preserving order.
	ResolveModules(ctx context.Context, moduleIDs []string) ([]account.ModuleDescriptor, error)

	// RegisterAccount records the account under its identifier, claiming
	// the namespace when one is given and collecting the namespace fee.
	RegisterAccount(ctx context.Context, reg Registration) error

	// NamespaceFee quotes the namespace registration fee.
	NamespaceFee(ctx context.Context) (funds.Funds, error)

	// AssertModuleValidity checks that the entity deployed at the given
	// address matches the descriptor's identity and checksum.
	AssertModuleValidity(ctx context.Context, desc account.ModuleDescriptor, deployed string) error
}

// ComponentFactory prices sub-component installations.
//
//go:generate mockery --name ComponentFactory --output mocks --outpkg mocks --filename mock_component_factory.go --with-expecter
type ComponentFactory interface {
	// SimulateInstallCost returns the total funds required to install
	// the requested modules. Pure query; must not mutate state.
	SimulateInstallCost(ctx context.Context, installs []ModuleInstall) (funds.Funds, error)
}
