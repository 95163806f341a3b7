package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"item-catalog/internal/config"
	custommiddleware "item-catalog/internal/middleware"
	"item-catalog/internal/repository"
	"item-catalog/internal/service"
	"item-catalog/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     *sql.DB
	redis  *redis.Client
}

// NewServer wires the item store, optional Redis collaborators and the HTTP
// router. db may be nil for the in-memory store; redisClient may be nil when
// Redis is disabled.
func NewServer(cfg *config.Config, logger *zap.Logger, db *sql.DB, redisClient *redis.Client) (*Server, error) {
	itemRepo, err := newItemRepository(cfg, logger, db, redisClient)
	if err != nil {
		return nil, err
	}

	router := NewRouter(cfg, logger, service.NewItemService(itemRepo), redisClient, db)

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		db:     db,
		redis:  redisClient,
	}

	return server, nil
}

func newItemRepository(cfg *config.Config, logger *zap.Logger, db *sql.DB, redisClient *redis.Client) (repository.ItemRepository, error) {
	var itemRepo repository.ItemRepository

	if cfg.Database.Driver == "memory" {
		itemRepo = repository.NewMemoryItemRepository()
	} else {
		if db == nil {
			return nil, fmt.Errorf("database driver %q requires a connection", cfg.Database.Driver)
		}
		dialect, err := repository.DialectFor(cfg.Database.Driver)
		if err != nil {
			return nil, err
		}
		itemRepo = repository.NewItemRepository(db, dialect)
	}

	if redisClient != nil && cfg.Cache.TTL > 0 {
		itemRepo = repository.NewCachedItemRepository(itemRepo, redisClient, repository.CacheConfig{
			TTL:       cfg.Cache.TTL,
			KeyPrefix: "item",
		}, logger)
	}

	return itemRepo, nil
}

// NewRouter builds the HTTP handler tree around itemService
func NewRouter(cfg *config.Config, logger *zap.Logger, itemService service.ItemService, redisClient *redis.Client, db *sql.DB) http.Handler {
	router := chi.NewRouter()

	router.NotFound(custommiddleware.NotFoundHandler)
	router.MethodNotAllowed(custommiddleware.MethodNotAllowedHandler)

	// Add basic middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(middleware.Compress(5))
	router.Use(custommiddleware.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.Server.IsDevelopment()))

	// Health check endpoint
	router.Get("/health", healthHandler(db))

	// Auth runs first so the rate limiter can key on the token subject
	var itemMiddlewares []func(http.Handler) http.Handler
	if cfg.Auth.JWTSecret != "" {
		itemMiddlewares = append(itemMiddlewares, custommiddleware.RequireAuthForWrites(
			custommiddleware.AuthMiddleware(cfg.Auth.JWTSecret, logger),
		))
	}
	if redisClient != nil && cfg.RateLimit.Requests > 0 {
		itemMiddlewares = append(itemMiddlewares, custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.Requests,
			Window:            cfg.RateLimit.Window,
			KeyPrefix:         "rate_limit",
		}, logger))
	}

	itemHandler := transport.NewItemHandler(itemService, logger)
	itemHandler.RegisterRoutes(router, itemMiddlewares...)

	return router
}

func healthHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), time.Second)
			defer cancel()

			if err := db.PingContext(ctx); err != nil {
				custommiddleware.RespondWithError(w, http.StatusServiceUnavailable, "database unavailable")
				return
			}
		}

		custommiddleware.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	// Close database connection
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
