package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/spec-kit/support-desk/internal/persistence"
)

var (
	migrateCmd = &cobra.Command{
		RunE:  runMigration,
		Use:   "migrate",
		Short: "apply the embedded sql migrations",
	}
	migrateDown bool
)

func init() {
	migrateCmd.Flags().BoolVar(&migrateDown, "down", false, "roll back the latest migration instead of applying pending ones")
}

func runMigration(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	direction := persistence.MigrateUp
	if migrateDown {
		direction = persistence.MigrateDown
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return persistence.RunMigrations(ctx, cfg.Postgres.DSN, direction, logger)
}
