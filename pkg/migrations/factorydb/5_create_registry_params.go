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
		log.Println("creating registry_params table...")
		if err := mghelper.CreateSchema(ctx, db, &registrystore.ParamsDao{}); err != nil {
			return err
		}
		// Add singleton constraint to ensure only one row with id=1
		_, err := db.ExecContext(ctx, "ALTER TABLE registry_params ADD CONSTRAINT singleton_check CHECK (id = 1)")
		if err != nil {
			return err
		}
		// Insert initial params row with ON CONFLICT for idempotency; NULL fee means free namespaces
		_, err = db.NewInsert().
			Model(&registrystore.ParamsDao{
				ID: 1,
			}).
			ModelTableExpr("registry_params").
			On("CONFLICT (id) DO NOTHING").
			Exec(ctx)
		return err
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping registry_params table...")
		return mghelper.DropTables(ctx, db, &registrystore.ParamsDao{})
	})
}
