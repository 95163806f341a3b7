package database

import (
	"database/sql"
	"fmt"

	"item-catalog/migrations"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

// setup points goose at the embedded migrations for dialect and returns the
// directory holding them
func setup(dialect string) (string, error) {
	gooseDialect := dialect
	if dialect == "sqlite" {
		gooseDialect = "sqlite3"
	}

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect(gooseDialect); err != nil {
		return "", fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return dialect, nil
}

// RunMigrations executes all pending database migrations
func RunMigrations(db *sql.DB, dialect string, logger *zap.Logger) error {
	dir, err := setup(dialect)
	if err != nil {
		return err
	}

	logger.Info("Checking for pending migrations...", zap.String("dialect", dialect))

	if err := goose.Up(db, dir); err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("Migrations completed successfully")
	return nil
}

// RollbackMigration reverts the most recently applied migration
func RollbackMigration(db *sql.DB, dialect string, logger *zap.Logger) error {
	dir, err := setup(dialect)
	if err != nil {
		return err
	}

	if err := goose.Down(db, dir); err != nil {
		logger.Error("Failed to roll back migration", zap.Error(err))
		return fmt.Errorf("failed to roll back migration: %w", err)
	}

	logger.Info("Rolled back one migration")
	return nil
}

// GetMigrationStatus logs the current migration status
func GetMigrationStatus(db *sql.DB, dialect string) error {
	dir, err := setup(dialect)
	if err != nil {
		return err
	}

	return goose.Status(db, dir)
}
