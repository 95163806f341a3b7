package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"item-catalog/internal/config"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Service wraps the database connection pool
type Service interface {
	// DB returns the underlying connection pool
	DB() *sql.DB
	// Dialect returns the SQL dialect name ("postgres" or "sqlite")
	Dialect() string
	// Health returns a map of health status information
	Health() map[string]string
	// Close terminates the connection pool
	Close() error
}

type service struct {
	db      *sql.DB
	dialect string
}

// New opens a connection pool for the configured driver and verifies it
func New(cfg config.DatabaseConfig) (Service, error) {
	var driverName string
	switch cfg.Driver {
	case "postgres":
		driverName = "pgx"
	case "sqlite":
		driverName = "sqlite"
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := sql.Open(driverName, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.Driver == "sqlite" {
		// SQLite allows a single writer
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &service{db: db, dialect: cfg.Driver}, nil
}

func (s *service) DB() *sql.DB {
	return s.db
}

func (s *service) Dialect() string {
	return s.dialect
}

// Health checks the connection and reports pool statistics
func (s *service) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	stats := make(map[string]string)

	if err := s.db.PingContext(ctx); err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		return stats
	}

	stats["status"] = "up"
	stats["message"] = "It's healthy"

	dbStats := s.db.Stats()
	stats["open_connections"] = strconv.Itoa(dbStats.OpenConnections)
	stats["in_use"] = strconv.Itoa(dbStats.InUse)
	stats["idle"] = strconv.Itoa(dbStats.Idle)
	stats["wait_count"] = strconv.FormatInt(dbStats.WaitCount, 10)
	stats["wait_duration"] = dbStats.WaitDuration.String()

	return stats
}

func (s *service) Close() error {
	return s.db.Close()
}
