package factorydb

import (
	"context"
	"log"

	"github.com/chainsafe/account-factory/pkg/account"
	"github.com/chainsafe/account-factory/pkg/factory"
	"github.com/chainsafe/account-factory/pkg/registrystore"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/uptrace/bun"
)

// baseModuleVersion is the catalog version seeded for a fresh database.
// Registering a newer version supersedes these rows for new creations.
const baseModuleVersion = "1.0.0"

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("seeding base account modules...")
		modules := []*registrystore.ModuleDao{
			{
				ModuleID: factory.ControllerModuleID,
				Version:  baseModuleVersion,
				Kind:     account.ModuleKindAccountBase,
				CodeID:   1,
				Checksum: crypto.Keccak256([]byte(factory.ControllerModuleID + "@" + baseModuleVersion)),
			},
			{
				ModuleID: factory.ProxyModuleID,
				Version:  baseModuleVersion,
				Kind:     account.ModuleKindAccountBase,
				CodeID:   2,
				Checksum: crypto.Keccak256([]byte(factory.ProxyModuleID + "@" + baseModuleVersion)),
			},
		}

		for _, module := range modules {
			_, err := db.NewInsert().
				Model(module).
				On("CONFLICT (module_id, version) DO NOTHING").
				Exec(ctx)
			if err != nil {
				return err
			}
		}
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("removing base account modules...")
		_, err := db.NewDelete().
			Model((*registrystore.ModuleDao)(nil)).
			Where("module_id IN (?)", bun.In([]string{factory.ControllerModuleID, factory.ProxyModuleID})).
			Where("version = ?", baseModuleVersion).
			Exec(ctx)
		return err
	})
}
