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
		log.Println("creating account_sequence table...")
		if err := mghelper.CreateSchema(ctx, db, &factorystore.SequenceDao{}); err != nil {
			return err
		}
		// Add singleton constraint to ensure only one row with id=1
		_, err := db.ExecContext(ctx, "ALTER TABLE account_sequence ADD CONSTRAINT singleton_check CHECK (id = 1)")
		if err != nil {
			return err
		}
		// Insert initial counter row with ON CONFLICT for idempotency
		_, err = db.NewInsert().
			Model(&factorystore.SequenceDao{
				ID:           1,
				NextSequence: 0,
			}).
			ModelTableExpr("account_sequence").
			On("CONFLICT (id) DO NOTHING").
			Exec(ctx)
		return err
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping account_sequence table...")
		return mghelper.DropTables(ctx, db, &factorystore.SequenceDao{})
	})
}
