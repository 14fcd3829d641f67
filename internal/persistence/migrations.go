package persistence

import (
	"context"
	"embed"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

const migrationsDir = "migrations"

//go:embed migrations/*.sql
var migrationFiles embed.FS

// MigrationDirection selects whether pending migrations are applied or the latest one is undone.
type MigrationDirection int

const (
	MigrateUp MigrationDirection = iota
	MigrateDown
)

// RunMigrations applies the embedded SQL migrations through goose.
func RunMigrations(ctx context.Context, dsn string, direction MigrationDirection, logger *zap.Logger) error {
	db, err := goose.OpenDBWithDriver("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrationFiles)
	goose.SetTableName("schema_migrations")

	switch direction {
	case MigrateDown:
		logger.Info("rolling back latest migration")
		err = goose.DownContext(ctx, db, migrationsDir)
	default:
		logger.Info("applying migrations")
		err = goose.UpContext(ctx, db, migrationsDir)
	}
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	version, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	logger.Info("migrations applied", zap.Int64("version", version))
	return nil
}
