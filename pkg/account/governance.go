package account

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// GovernanceKind enumerates the closed set of governance forms an
// account can be created under.
type GovernanceKind string

const (
	// GovernanceIndividual places the account under a single owner address.
	GovernanceIndividual GovernanceKind = "individual"
	// GovernanceSubAccount places the account under an existing controller.
	GovernanceSubAccount GovernanceKind = "sub-account"
	// GovernanceExternal delegates governance to an external system.
	GovernanceExternal GovernanceKind = "external"
)

// ErrUnknownGovernance reports a governance kind outside the closed set.
var ErrUnknownGovernance = errors.New("unknown governance kind")

// SubAccountAuthorizationError reports a sub-account creation attempted
// by a caller other than the designated parent controller.
type SubAccountAuthorizationError struct {
	Caller     string
	Controller string
}

func (e *SubAccountAuthorizationError) Error() string {
	return fmt.Sprintf("sub-account creation requires the parent controller %s, called by %s", e.Controller, e.Caller)
}

// Governance is the tagged governance specification supplied with a
// creation request. Exactly the fields of the selected kind are set.
type Governance struct {
	Kind GovernanceKind `json:"kind"`

	// Owner is the controlling address for individual governance.
	Owner string `json:"owner,omitzero"`

	// Controller is the parent controller address for sub-account
	// governance; the creation caller must be this address.
	Controller string `json:"controller,omitzero"`

	// Address and ExternalKind identify the governing system for
	// external governance.
	Address      string `json:"address,omitzero"`
	ExternalKind string `json:"external_kind,omitzero"`
}

// NewIndividualGovernance returns an individual governance spec.
func NewIndividualGovernance(owner string) Governance {
	return Governance{Kind: GovernanceIndividual, Owner: owner}
}

// NewSubAccountGovernance returns a sub-account governance spec.
func NewSubAccountGovernance(controller string) Governance {
	return Governance{Kind: GovernanceSubAccount, Controller: controller}
}

// ResolvedGovernance is the verified outcome of a governance spec: the
// kind plus the normalized address that ends up owning the account.
type ResolvedGovernance struct {
	Kind  GovernanceKind `json:"kind"`
	Owner string         `json:"owner"`
}

// Verify checks the spec against the closed kind set, validates its
// address fields and, for sub-account governance, requires the caller
// to be the designated parent controller.
func (g Governance) Verify(caller string) (ResolvedGovernance, error) {
	switch g.Kind {
	case GovernanceIndividual:
		owner, err := ValidateAddress(g.Owner)
		if err != nil {
			return ResolvedGovernance{}, fmt.Errorf("individual governance owner: %w", err)
		}
		return ResolvedGovernance{Kind: g.Kind, Owner: owner}, nil

	case GovernanceSubAccount:
		controller, err := ValidateAddress(g.Controller)
		if err != nil {
			return ResolvedGovernance{}, fmt.Errorf("sub-account governance controller: %w", err)
		}
		normCaller, err := ValidateAddress(caller)
		if err != nil {
			return ResolvedGovernance{}, fmt.Errorf("sub-account governance caller: %w", err)
		}
		if normCaller != controller {
			return ResolvedGovernance{}, &SubAccountAuthorizationError{Caller: normCaller, Controller: controller}
		}
		return ResolvedGovernance{Kind: g.Kind, Owner: controller}, nil

	case GovernanceExternal:
		addr, err := ValidateAddress(g.Address)
		if err != nil {
			return ResolvedGovernance{}, fmt.Errorf("external governance address: %w", err)
		}
		if g.ExternalKind == "" {
			return ResolvedGovernance{}, errors.New("external governance requires a kind label")
		}
		return ResolvedGovernance{Kind: g.Kind, Owner: addr}, nil

	default:
		return ResolvedGovernance{}, fmt.Errorf("%w: %q", ErrUnknownGovernance, g.Kind)
	}
}

// ValidateAddress checks the syntactic form of an address and returns
// its checksummed canonical rendering.
func ValidateAddress(s string) (string, error) {
	if !common.IsHexAddress(s) {
		return "", fmt.Errorf("invalid address %q", s)
	}
	return common.HexToAddress(s).Hex(), nil
}
