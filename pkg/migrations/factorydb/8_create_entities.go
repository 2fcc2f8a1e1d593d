package factorydb

import (
	"context"
	"log"

	"github.com/chainsafe/account-factory/pkg/entitystore"
	mghelper "github.com/chainsafe/account-factory/pkg/pgutil/migrations"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("creating entities table...")
		if err := mghelper.CreateSchema(ctx, db, &entitystore.EntityDao{}); err != nil {
			return err
		}
		// Create indexes
		return mghelper.CreateModelIndexes(ctx, db, &entitystore.EntityDao{}, "account_id", "module_id")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping entities table...")
		return mghelper.DropTables(ctx, db, &entitystore.EntityDao{})
	})
}
