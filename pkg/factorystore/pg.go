package factorystore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/uptrace/bun"

	"github.com/chainsafe/account-factory/pkg/factory"
)

type pgStore struct {
	db bun.IDB
}

// NewStore creates a new postgres implementation of the factory state store.
// It accepts bun.IDB so a store can be scoped to a running transaction.
func NewStore(db bun.IDB) *pgStore {
	return &pgStore{db: db}
}

func (s *pgStore) Config(ctx context.Context) (*factory.Config, error) {
	dao := new(ConfigDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("id = ?", singletonRowID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("failed to get factory config: %w", err)
	}

	return toConfig(dao), nil
}

func (s *pgStore) SaveConfig(ctx context.Context, cfg *factory.Config) error {
	dao := toConfigDao(cfg)

	_, err := s.db.NewInsert().
		Model(dao).
		On("CONFLICT (id) DO UPDATE").
		Set("owner = EXCLUDED.owner").
		Set("factory_address = EXCLUDED.factory_address").
		Set("registry_address = EXCLUDED.registry_address").
		Set("component_factory_address = EXCLUDED.component_factory_address").
		Set("gateway_address = EXCLUDED.gateway_address").
		Set("updated_at = NOW()").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to save factory config: %w", err)
	}

	return nil
}

func (s *pgStore) NextSequence(ctx context.Context) (uint32, error) {
	dao := new(SequenceDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("id = ?", singletonRowID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get account sequence: %w", err)
	}

	return uint32(dao.NextSequence), nil
}

// IncrementSequence advances the counter past the allocated sequence. The
// write is conditional on the stored counter still matching the allocation,
// so a counter mutated elsewhere surfaces as ErrSequenceConflict instead of
// silently skipping or reusing identifiers.
func (s *pgStore) IncrementSequence(ctx context.Context, allocated uint32) error {
	if allocated == math.MaxUint32 {
		return fmt.Errorf("account sequence %d: %w", allocated, ErrSequenceOverflow)
	}

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		dao := new(SequenceDao)
		current := int64(0)
		err := tx.NewSelect().
			Model(dao).
			Where("id = ?", singletonRowID).
			For("UPDATE").
			Scan(ctx)
		switch {
		case errors.Is(err, sql.ErrNoRows):
		case err != nil:
			return fmt.Errorf("failed to get account sequence: %w", err)
		default:
			current = dao.NextSequence
		}

		if current != int64(allocated) {
			return fmt.Errorf("expected sequence %d, counter holds %d: %w", allocated, current, ErrSequenceConflict)
		}

		next := &SequenceDao{ID: singletonRowID, NextSequence: int64(allocated) + 1}
		_, err = tx.NewInsert().
			Model(next).
			On("CONFLICT (id) DO UPDATE").
			Set("next_sequence = EXCLUDED.next_sequence").
			Set("updated_at = NOW()").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to advance account sequence: %w", err)
		}

		return nil
	})
}

func (s *pgStore) SaveContext(ctx context.Context, pending *factory.Context) error {
	dao, err := toContextDao(pending)
	if err != nil {
		return err
	}

	// Overwriting a stale slot is intentional: a context left behind by an
	// aborted run must not block the next one.
	_, err = s.db.NewInsert().
		Model(dao).
		On("CONFLICT (id) DO UPDATE").
		Set("account_sequence = EXCLUDED.account_sequence").
		Set("account_trace = EXCLUDED.account_trace").
		Set("controller_address = EXCLUDED.controller_address").
		Set("proxy_address = EXCLUDED.proxy_address").
		Set("controller_module = EXCLUDED.controller_module").
		Set("proxy_module = EXCLUDED.proxy_module").
		Set("created_at = NOW()").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to save creation context: %w", err)
	}

	return nil
}

// TakeContext removes and returns the pending creation context in one step,
// so a context can never be consumed twice.
func (s *pgStore) TakeContext(ctx context.Context) (*factory.Context, error) {
	dao := new(ContextDao)
	err := s.db.NewDelete().
		Model(dao).
		Where("id = ?", singletonRowID).
		Returning("*").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrContextNotFound
		}
		return nil, fmt.Errorf("failed to take creation context: %w", err)
	}

	return toContext(dao)
}
