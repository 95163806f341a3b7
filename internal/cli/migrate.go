package cli

import (
	"fmt"

	"item-catalog/internal/database"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(func(db database.Service, log *zap.Logger) error {
				return database.RunMigrations(db.DB(), db.Dialect(), log)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(func(db database.Service, log *zap.Logger) error {
				return database.RollbackMigration(db.DB(), db.Dialect(), log)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(func(db database.Service, log *zap.Logger) error {
				return database.GetMigrationStatus(db.DB(), db.Dialect())
			})
		},
	})

	return cmd
}

func withDatabase(fn func(db database.Service, log *zap.Logger) error) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer log.Sync()

	if cfg.Database.Driver == "memory" {
		return fmt.Errorf("the memory store has no schema to migrate")
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(db, log)
}
