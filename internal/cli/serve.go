package cli

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"item-catalog/internal/config"
	"item-catalog/internal/database"
	"item-catalog/internal/server"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type serveFlags struct {
	skipMigrations bool
}

func newServeCmd() *cobra.Command {
	var sf serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(sf)
		},
	}

	cmd.Flags().BoolVar(&sf.skipMigrations, "skip-migrations", false, "do not apply pending migrations on startup")

	return cmd
}

func gracefulShutdown(apiServer *server.Server, logger *zap.Logger, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	logger.Info("Shutting down gracefully, press Ctrl+C again to force")
	stop() // Allow Ctrl+C to force shutdown

	// The server has 30 seconds to finish in-flight requests
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	// Close server resources
	if err := apiServer.Close(); err != nil {
		logger.Error("Error closing server resources", zap.Error(err))
	}

	logger.Info("Server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

func runServer(sf serveFlags) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer log.Sync()

	log.Info("Starting item catalog API",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
		zap.String("store", cfg.Database.Driver),
	)

	var db *sql.DB
	if cfg.Database.Driver != "memory" {
		dbService, err := database.New(cfg.Database)
		if err != nil {
			log.Error("Failed to connect to database", zap.Error(err))
			return err
		}
		db = dbService.DB()

		log.Info("Database health check", zap.Any("health", dbService.Health()))

		if !sf.skipMigrations {
			if err := database.RunMigrations(db, dbService.Dialect(), log); err != nil {
				dbService.Close()
				return err
			}
		}
	}

	srv, err := server.NewServer(cfg, log, db, newRedisClient(cfg.Redis, log))
	if err != nil {
		return err
	}

	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(srv, log, done)

	log.Info("Server listening", zap.String("addr", srv.Addr))

	err = srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("HTTP server error", zap.Error(err))
		srv.Close()
		return err
	}

	// Wait for the graceful shutdown to complete
	<-done
	log.Info("Graceful shutdown complete")
	return nil
}

// newRedisClient connects to Redis when enabled. An unreachable server
// disables caching and rate limiting rather than blocking startup.
func newRedisClient(cfg config.RedisConfig, log *zap.Logger) *redis.Client {
	if !cfg.Enabled {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("Redis unavailable, continuing without cache and rate limiting",
			zap.Error(err),
			zap.String("addr", cfg.Addr()),
		)
		client.Close()
		return nil
	}

	log.Info("Connected to Redis", zap.String("addr", cfg.Addr()))
	return client
}
