package factorydb

import (
	"context"
	"log"

	"github.com/chainsafe/account-factory/pkg/gateway"
	mghelper "github.com/chainsafe/account-factory/pkg/pgutil/migrations"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("creating remote_requests table...")
		if err := mghelper.CreateSchema(ctx, db, &gateway.RequestDao{}); err != nil {
			return err
		}
		// Create indexes
		return mghelper.CreateModelIndexes(ctx, db, &gateway.RequestDao{}, "status")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping remote_requests table...")
		return mghelper.DropTables(ctx, db, &gateway.RequestDao{})
	})
}
