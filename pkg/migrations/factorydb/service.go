// Package factorydb holds all the migrations for the account factory database
package factorydb

import (
	"github.com/uptrace/bun/migrate"
)

// Migrations is the collection of all migrations for the account factory database
var Migrations = migrate.NewMigrations()
