package registrystore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/chainsafe/account-factory/pkg/account"
	"github.com/chainsafe/account-factory/pkg/entitystore"
	"github.com/chainsafe/account-factory/pkg/funds"
	"github.com/chainsafe/account-factory/pkg/registry"
)

type pgStore struct {
	db       bun.IDB
	entities entitystore.Store
}

// NewStore creates a new postgres implementation of the module registry
// and component factory. The entity store is consulted when validating
// deployed modules.
func NewStore(db bun.IDB, entities entitystore.Store) *pgStore {
	return &pgStore{db: db, entities: entities}
}

func (s *pgStore) RegisterModule(ctx context.Context, module *Module) error {
	dao, err := toModuleDao(module)
	if err != nil {
		return err
	}

	_, err = s.db.NewInsert().
		Model(dao).
		Exec(ctx)
	if err != nil {
		var pgErr pgdriver.Error
		if errors.As(err, &pgErr) && pgErr.IntegrityViolation() {
			return fmt.Errorf("%s: %w", module.Descriptor, ErrModuleVersionExists)
		}
		return fmt.Errorf("failed to register module: %w", err)
	}

	return nil
}

// ResolveModule resolves a module identifier to its newest catalog
// entry. Entries are append-only, so the highest row id is the latest
// registered version.
func (s *pgStore) ResolveModule(ctx context.Context, moduleID string) (account.ModuleDescriptor, error) {
	dao := new(ModuleDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("module_id = ?", moduleID).
		Order("id DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return account.ModuleDescriptor{}, fmt.Errorf("%s: %w", moduleID, registry.ErrModuleNotFound)
		}
		return account.ModuleDescriptor{}, fmt.Errorf("failed to resolve module: %w", err)
	}

	return toDescriptor(dao), nil
}

func (s *pgStore) ResolveModules(ctx context.Context, moduleIDs []string) ([]account.ModuleDescriptor, error) {
	descriptors := make([]account.ModuleDescriptor, len(moduleIDs))
	for i, moduleID := range moduleIDs {
		desc, err := s.ResolveModule(ctx, moduleID)
		if err != nil {
			return nil, err
		}
		descriptors[i] = desc
	}
	return descriptors, nil
}

func (s *pgStore) RegisterAccount(ctx context.Context, reg registry.Registration) error {
	dao, err := toAccountDao(&reg)
	if err != nil {
		return err
	}

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*AccountDao)(nil)).
			Where("account_id = ?", dao.AccountID).
			Exists(ctx)
		if err != nil {
			return fmt.Errorf("failed to check account exists: %w", err)
		}
		if exists {
			return fmt.Errorf("%s: %w", reg.AccountID, registry.ErrAccountExists)
		}

		quoted, err := namespaceFee(ctx, tx)
		if err != nil {
			return err
		}

		if reg.Namespace != "" {
			taken, err := tx.NewSelect().
				Model((*AccountDao)(nil)).
				Where("namespace = ?", reg.Namespace).
				Exists(ctx)
			if err != nil {
				return fmt.Errorf("failed to check namespace claim: %w", err)
			}
			if taken {
				return fmt.Errorf("%s: %w", reg.Namespace, registry.ErrNamespaceTaken)
			}
			if !reg.Fee.Equal(quoted) {
				return &funds.FeeMismatchError{Expected: quoted, Sent: reg.Fee}
			}
		} else if !reg.Fee.IsZero() {
			return &funds.FeeMismatchError{Expected: funds.New(), Sent: reg.Fee}
		}

		if _, err := tx.NewInsert().Model(dao).Exec(ctx); err != nil {
			return fmt.Errorf("failed to register account: %w", err)
		}
		return nil
	})
}

func (s *pgStore) Account(ctx context.Context, id account.ID) (*registry.Registration, error) {
	dao := new(AccountDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("account_id = ?", id.String()).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", id, ErrAccountNotFound)
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return toRegistration(dao)
}

func (s *pgStore) NamespaceFee(ctx context.Context) (funds.Funds, error) {
	return namespaceFee(ctx, s.db)
}

func namespaceFee(ctx context.Context, db bun.IDB) (funds.Funds, error) {
	dao := new(ParamsDao)
	err := db.NewSelect().
		Model(dao).
		Where("id = ?", paramsRowID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return funds.New(), nil
		}
		return nil, fmt.Errorf("failed to get registry params: %w", err)
	}

	return unmarshalFunds(dao.NamespaceFee)
}

func (s *pgStore) SetNamespaceFee(ctx context.Context, fee funds.Funds) error {
	raw, err := marshalFunds(fee)
	if err != nil {
		return err
	}

	dao := &ParamsDao{ID: paramsRowID, NamespaceFee: raw}
	_, err = s.db.NewInsert().
		Model(dao).
		On("CONFLICT (id) DO UPDATE").
		Set("namespace_fee = EXCLUDED.namespace_fee").
		Set("updated_at = NOW()").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to set namespace fee: %w", err)
	}

	return nil
}

// AssertModuleValidity checks that the entity recorded at the deployed
// address runs exactly the module the descriptor promises.
func (s *pgStore) AssertModuleValidity(ctx context.Context, desc account.ModuleDescriptor, deployed string) error {
	entity, err := s.entities.Entity(ctx, deployed)
	if err != nil {
		if errors.Is(err, entitystore.ErrEntityNotFound) {
			return fmt.Errorf("no entity deployed at %s: %w", deployed, registry.ErrDeploymentMismatch)
		}
		return fmt.Errorf("failed to load deployed entity: %w", err)
	}

	got := entity.Module
	switch {
	case got.ID != desc.ID || got.Version != desc.Version:
		return fmt.Errorf("entity at %s runs %s, expected %s: %w", deployed, got, desc, registry.ErrDeploymentMismatch)
	case got.CodeID != desc.CodeID:
		return fmt.Errorf("entity at %s runs code %d, expected %d: %w", deployed, got.CodeID, desc.CodeID, registry.ErrDeploymentMismatch)
	case !got.ChecksumEqual(desc.Checksum):
		return fmt.Errorf("entity at %s checksum does not match %s: %w", deployed, desc, registry.ErrDeploymentMismatch)
	case got.Kind != desc.Kind:
		return &account.WrongModuleKindError{ModuleID: got.ID, Kind: got.Kind, Expected: desc.Kind}
	}

	return nil
}

func (s *pgStore) SimulateInstallCost(ctx context.Context, installs []registry.ModuleInstall) (funds.Funds, error) {
	total := funds.New()
	for _, install := range installs {
		dao := new(ModuleDao)
		err := s.db.NewSelect().
			Model(dao).
			Where("module_id = ?", install.ModuleID).
			Order("id DESC").
			Limit(1).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("%s: %w", install.ModuleID, registry.ErrModuleNotFound)
			}
			return nil, fmt.Errorf("failed to price module install: %w", err)
		}

		fee, err := unmarshalFunds(dao.InstallFee)
		if err != nil {
			return nil, err
		}
		total = total.Add(fee)
	}

	return total, nil
}
