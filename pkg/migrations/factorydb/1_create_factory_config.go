package factorydb

import (
	"context"
	"log"

	"github.com/chainsafe/account-factory/pkg/factorystore"
	mghelper "github.com/chainsafe/account-factory/pkg/pgutil/migrations"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("creating factory_config table...")
		if err := mghelper.CreateSchema(ctx, db, &factorystore.ConfigDao{}); err != nil {
			return err
		}
		// Add singleton constraint to ensure only one row with id=1
		_, err := db.ExecContext(ctx, "ALTER TABLE factory_config ADD CONSTRAINT singleton_check CHECK (id = 1)")
		return err
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping factory_config table...")
		return mghelper.DropTables(ctx, db, &factorystore.ConfigDao{})
	})
}
