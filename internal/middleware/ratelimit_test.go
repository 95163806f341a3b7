package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRateLimitedHandler(t *testing.T, limit int) (http.Handler, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { redisClient.Close() })

	config := RateLimitConfig{
		RequestsPerWindow: limit,
		Window:            time.Minute,
		KeyPrefix:         "test_rate_limit",
	}

	handler := RateLimitMiddleware(redisClient, config, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	return handler, mr
}

func TestProperty_RateLimitingBlocksExcessiveRequests(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("excessive requests are blocked with 429", prop.ForAll(
		func(requestsPerWindow int, excessRequests int) bool {
			handler, _ := newRateLimitedHandler(t, requestsPerWindow)

			successCount := 0
			blockedCount := 0

			for i := 0; i < requestsPerWindow+excessRequests; i++ {
				req := httptest.NewRequest(http.MethodGet, "/items", nil)
				req.RemoteAddr = "192.168.1.100"
				w := httptest.NewRecorder()

				handler.ServeHTTP(w, req)

				switch w.Code {
				case http.StatusOK:
					successCount++
				case http.StatusTooManyRequests:
					blockedCount++
				}
			}

			// Should allow exactly requestsPerWindow requests and block the rest
			return successCount == requestsPerWindow && blockedCount == excessRequests
		},
		gen.IntRange(1, 20),
		gen.IntRange(1, 10),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestRateLimitHeaders(t *testing.T) {
	handler, _ := newRateLimitedHandler(t, 2)

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/items", nil)
		req.RemoteAddr = "10.0.0.1"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	w := send()
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))

	send()
	w = send()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
}

func TestRateLimitWindowResets(t *testing.T) {
	handler, mr := newRateLimitedHandler(t, 1)

	send := func() int {
		req := httptest.NewRequest(http.MethodGet, "/items", nil)
		req.RemoteAddr = "10.0.0.2"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send())
	assert.Equal(t, http.StatusTooManyRequests, send())

	mr.FastForward(time.Minute + time.Second)
	assert.Equal(t, http.StatusOK, send())
}

func TestRateLimitKeysOnSubject(t *testing.T) {
	handler, _ := newRateLimitedHandler(t, 1)

	send := func(subject string) int {
		req := httptest.NewRequest(http.MethodPost, "/items", nil)
		req.RemoteAddr = "10.0.0.3"
		req = req.WithContext(context.WithValue(req.Context(), SubjectKey, subject))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("alice"))
	assert.Equal(t, http.StatusOK, send("bob"))
	assert.Equal(t, http.StatusTooManyRequests, send("alice"))
}

func TestRateLimitFailsOpen(t *testing.T) {
	handler, mr := newRateLimitedHandler(t, 1)
	mr.Close()

	req := httptest.NewRequest(http.MethodGet, "/items", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimitIgnoresClientPort(t *testing.T) {
	handler, _ := newRateLimitedHandler(t, 1)

	codes := make([]int, 0, 3)
	for _, addr := range []string{"10.0.0.1:50001", "10.0.0.1:50002", "10.0.0.1:50003"} {
		req := httptest.NewRequest(http.MethodGet, "/items", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests, http.StatusTooManyRequests}, codes)

	req := httptest.NewRequest(http.MethodGet, "/items", nil)
	req.RemoteAddr = "10.0.0.4:50001"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code, "other hosts keep their own window")
}

func TestRateLimitCounterAlwaysExpires(t *testing.T) {
	handler, mr := newRateLimitedHandler(t, 1)

	send := func() int {
		req := httptest.NewRequest(http.MethodGet, "/items", nil)
		req.RemoteAddr = "10.0.0.9:4000"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send())
	ttl := mr.TTL("test_rate_limit:10.0.0.9")
	assert.True(t, ttl > 0 && ttl <= time.Minute, "window starts with the first request")

	// A counter stranded without a TTL must not lock the client out forever
	require.NoError(t, mr.Set("test_rate_limit:10.0.0.9", "1"))
	assert.Equal(t, http.StatusTooManyRequests, send())
	assert.True(t, mr.TTL("test_rate_limit:10.0.0.9") > 0)

	mr.FastForward(time.Minute + time.Second)
	assert.Equal(t, http.StatusOK, send())

	// Later requests in the window do not extend it
	mr.FastForward(30 * time.Second)
	send()
	assert.True(t, mr.TTL("test_rate_limit:10.0.0.9") <= 30*time.Second)
}
