package main

import (
	"context"
	"fmt"

	"gym-admin-service/internal/config"
	"gym-admin-service/internal/db"
	"gym-admin-service/internal/repository/postgres"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var steps int

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tools",
		Long:  `Apply, roll back or inspect the embedded PostgreSQL schema migrations.`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Run all pending migrations",
			RunE:  runMigration(func(ctx context.Context, m *postgres.Migrator) error { return m.Up(ctx) }),
		},
		newDownCommand(),
		&cobra.Command{
			Use:   "status",
			Short: "Show migration status",
			RunE:  runMigration(func(ctx context.Context, m *postgres.Migrator) error { return m.Status(ctx) }),
		},
	)

	return cmd
}

func newDownCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Rollback migrations",
		RunE: runMigration(func(ctx context.Context, m *postgres.Migrator) error {
			return m.Down(ctx, steps)
		}),
	}

	cmd.Flags().IntVarP(&steps, "steps", "n", 1, "Number of migrations to rollback")

	return cmd
}

func runMigration(fn func(context.Context, *postgres.Migrator) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := initEnv()
		if err != nil {
			return err
		}
		defer logger.Sync()

		if cfg.Database.Driver != config.DriverPostgres {
			return fmt.Errorf("migrations need DB_DRIVER=%s, got %q", config.DriverPostgres, cfg.Database.Driver)
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		pool, err := db.ConnectDB(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer pool.Close()

		migrator, err := postgres.NewMigrator(pool, logger)
		if err != nil {
			return err
		}
		defer migrator.Close()

		if err := fn(ctx, migrator); err != nil {
			logger.Error("migration failed", zap.Error(err))
			return err
		}
		return nil
	}
}
