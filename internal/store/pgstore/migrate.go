package pgstore

import (
	"context"
	"embed"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

const (
	migrationsDir    = "migrations"
	migrationDriver  = "pgx"
	migrationDialect = "postgres"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrate applies every pending schema migration to the database at databaseURL.
func Migrate(ctx context.Context, databaseURL string) error {
	sqlDB, err := goose.OpenDBWithDriver(migrationDriver, databaseURL)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	defer func() { _ = sqlDB.Close() }()
	goose.SetBaseFS(migrationFiles)
	if err := goose.SetDialect(migrationDialect); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}
	if err := goose.UpContext(ctx, sqlDB, migrationsDir); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
