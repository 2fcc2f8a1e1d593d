package entitystore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/chainsafe/account-factory/pkg/account"
)

type pgStore struct {
	db bun.IDB
}

// NewStore creates a new postgres implementation of the entity store.
// It accepts bun.IDB so a store can be scoped to a running transaction.
func NewStore(db bun.IDB) *pgStore {
	return &pgStore{db: db}
}

func (s *pgStore) CreateEntity(ctx context.Context, entity *Entity) error {
	dao := toEntityDao(entity)

	_, err := s.db.NewInsert().
		Model(dao).
		Exec(ctx)
	if err != nil {
		var pgErr pgdriver.Error
		if errors.As(err, &pgErr) && pgErr.IntegrityViolation() {
			return fmt.Errorf("%s: %w", entity.Address, ErrEntityExists)
		}
		return fmt.Errorf("failed to create entity: %w", err)
	}

	return nil
}

func (s *pgStore) Entity(ctx context.Context, address string) (*Entity, error) {
	dao := new(EntityDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("address = ?", address).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", address, ErrEntityNotFound)
		}
		return nil, fmt.Errorf("failed to get entity: %w", err)
	}

	return toEntity(dao)
}

func (s *pgStore) AccountEntities(ctx context.Context, id account.ID) ([]*Entity, error) {
	var daos []EntityDao
	err := s.db.NewSelect().
		Model(&daos).
		Where("account_id = ?", id.String()).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list account entities: %w", err)
	}

	entities := make([]*Entity, len(daos))
	for i := range daos {
		entity, err := toEntity(&daos[i])
		if err != nil {
			return nil, err
		}
		entities[i] = entity
	}

	return entities, nil
}
