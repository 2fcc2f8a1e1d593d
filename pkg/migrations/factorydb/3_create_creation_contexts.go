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
		log.Println("creating creation_contexts table...")
		if err := mghelper.CreateSchema(ctx, db, &factorystore.ContextDao{}); err != nil {
			return err
		}
		// The table is a single slot for the context awaiting deferred validation
		_, err := db.ExecContext(ctx, "ALTER TABLE creation_contexts ADD CONSTRAINT singleton_check CHECK (id = 1)")
		return err
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping creation_contexts table...")
		return mghelper.DropTables(ctx, db, &factorystore.ContextDao{})
	})
}
