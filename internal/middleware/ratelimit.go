package middleware

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerWindow int           // Number of requests allowed per window
	Window            time.Duration // Time window for rate limiting
	KeyPrefix         string        // Redis key prefix
}

// RateLimitMiddleware counts requests per client in fixed Redis windows and
// answers 429 once a client exceeds RequestsPerWindow. Redis failures let the
// request through.
func RateLimitMiddleware(redisClient *redis.Client, config RateLimitConfig, logger *zap.Logger) func(http.Handler) http.Handler {
	limit := strconv.Itoa(config.RequestsPerWindow)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			clientID := rateLimitClient(r)
			key := config.KeyPrefix + ":" + clientID

			// The window starts with the first request; ExpireNX also heals a
			// counter left without a TTL.
			var incr *redis.IntCmd
			_, err := redisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				incr = pipe.Incr(ctx, key)
				pipe.ExpireNX(ctx, key, config.Window)
				return nil
			})
			if err != nil {
				logger.Error("Failed to increment rate limit counter",
					zap.Error(err),
					zap.String("key", key),
				)
				next.ServeHTTP(w, r)
				return
			}

			count := incr.Val()
			w.Header().Set("X-RateLimit-Limit", limit)

			if count <= int64(config.RequestsPerWindow) {
				w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(int64(config.RequestsPerWindow)-count, 10))
				next.ServeHTTP(w, r)
				return
			}

			ttl, err := redisClient.TTL(ctx, key).Result()
			if err != nil || ttl < 0 {
				ttl = config.Window
			}

			logger.Warn("Rate limit exceeded",
				zap.String("client_id", clientID),
				zap.Int64("count", count),
				zap.Int("limit", config.RequestsPerWindow),
			)

			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(ttl).Unix(), 10))
			w.Header().Set("Retry-After", strconv.Itoa(int(ttl.Seconds())))
			RespondWithError(w, http.StatusTooManyRequests, "rate limit exceeded")
		})
	}
}

// rateLimitClient names the counter a request is charged to: the token
// subject when authenticated, else the remote host without its port.
func rateLimitClient(r *http.Request) string {
	if subject, ok := GetSubject(r.Context()); ok {
		return subject
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
