package factorydb

import (
	"context"
	"log"

	mghelper "github.com/chainsafe/account-factory/pkg/pgutil/migrations"
	"github.com/chainsafe/account-factory/pkg/registrystore"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("creating modules table...")
		if err := mghelper.CreateSchema(ctx, db, &registrystore.ModuleDao{}); err != nil {
			return err
		}
		// One row per module version; resolution picks the latest row per module id
		_, err := db.ExecContext(ctx, "CREATE UNIQUE INDEX IF NOT EXISTS idx_modules_module_id_version ON modules (module_id, version)")
		return err
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping modules table...")
		return mghelper.DropTables(ctx, db, &registrystore.ModuleDao{})
	})
}
