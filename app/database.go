package app

import (
	"context"
	"database/sql"
	"fmt"

	roundmigrations "github.com/Black-And-White-Club/scorecard/app/modules/round/infrastructure/repositories/migrations"
	"github.com/Black-And-White-Club/scorecard/config"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

// OpenDB opens the round store for the configured driver.
func OpenDB(cfg config.StoreConfig) (*bun.DB, error) {
	switch cfg.Driver {
	case "postgres":
		pgdb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN)))
		return bun.NewDB(pgdb, pgdialect.New()), nil
	case "sqlite":
		sqldb, err := sql.Open("sqlite3", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		// sqlite allows a single writer
		sqldb.SetMaxOpenConns(1)
		return bun.NewDB(sqldb, sqlitedialect.New()), nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}
}

// NewMigrator returns the round table migrator for db.
func NewMigrator(db *bun.DB) *migrate.Migrator {
	return migrate.NewMigrator(db, roundmigrations.Migrations)
}

// MigrateDB creates the migration tables if needed and applies pending migrations.
func MigrateDB(ctx context.Context, db *bun.DB) error {
	migrator := NewMigrator(db)
	if err := migrator.Init(ctx); err != nil {
		return fmt.Errorf("failed to init migrations: %w", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate round store: %w", err)
	}
	return nil
}
