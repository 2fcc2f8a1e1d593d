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
		log.Println("creating accounts table...")
		if err := mghelper.CreateSchema(ctx, db, &registrystore.AccountDao{}); err != nil {
			return err
		}
		// Namespaces are unique among the accounts that claimed one
		_, err := db.ExecContext(ctx, "CREATE UNIQUE INDEX IF NOT EXISTS idx_accounts_namespace ON accounts (namespace) WHERE namespace IS NOT NULL")
		if err != nil {
			return err
		}
		// Create indexes
		return mghelper.CreateModelIndexes(ctx, db, &registrystore.AccountDao{}, "owner")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping accounts table...")
		return mghelper.DropTables(ctx, db, &registrystore.AccountDao{})
	})
}
