// Package entitystore records the entities instantiated by creation
// runs: which module artifact runs at which address and under whose
// administration. Deferred validation reads it back to check that an
// instantiation produced what the plan promised.
package entitystore

import (
	"context"
	"errors"
	"time"

	"github.com/chainsafe/account-factory/pkg/account"
)

// ErrEntityNotFound is returned when no entity is recorded at an address.
var ErrEntityNotFound = errors.New("entity not found")

// ErrEntityExists is returned when an instantiation targets an address
// that is already occupied.
var ErrEntityExists = errors.New("entity already exists at address")

// Entity is one instantiated sub-entity.
type Entity struct {
	Address   string
	AccountID account.ID
	Module    account.ModuleDescriptor
	Admin     string
	Label     string
	CreatedAt time.Time
}

// Store defines the interface for entity persistence
type Store interface {
	CreateEntity(ctx context.Context, entity *Entity) error
	Entity(ctx context.Context, address string) (*Entity, error)
	AccountEntities(ctx context.Context, id account.ID) ([]*Entity, error)
}
