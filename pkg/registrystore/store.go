// Package registrystore is the postgres reference implementation of the
// module registry and component factory collaborators: the module
// catalog, the account directory, namespace claims and install pricing.
package registrystore

import (
	"context"
	"errors"

	"github.com/chainsafe/account-factory/pkg/account"
	"github.com/chainsafe/account-factory/pkg/funds"
	"github.com/chainsafe/account-factory/pkg/registry"
)

// ErrAccountNotFound is returned when an account lookup finds no record.
var ErrAccountNotFound = errors.New("account not found")

// ErrModuleVersionExists is returned when a module version is registered
// twice. Catalog entries are immutable once published.
var ErrModuleVersionExists = errors.New("module version already registered")

// Module is a catalog entry: the resolvable descriptor plus the fee
// charged when the module is installed on an account.
type Module struct {
	Descriptor account.ModuleDescriptor
	InstallFee funds.Funds
}

// Store is the registry's persistence surface. It subsumes the
// collaborator contracts consumed by creation runs and adds the
// management operations the catalog and directory need.
type Store interface {
	registry.Registry
	registry.ComponentFactory

	RegisterModule(ctx context.Context, module *Module) error
	Account(ctx context.Context, id account.ID) (*registry.Registration, error)
	SetNamespaceFee(ctx context.Context, fee funds.Funds) error
}
