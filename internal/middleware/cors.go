package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

var corsMethods = []string{
	http.MethodGet,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
	http.MethodOptions,
}

// Rate limit headers are readable by browser clients
var corsExposedHeaders = []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"}

// CORSMiddleware answers preflight requests for the item API. Any origin is
// accepted in development or when no origins are configured. Bearer tokens
// travel in the Authorization header, so credentials are never allowed.
func CORSMiddleware(allowedOrigins []string, isDevelopment bool) func(http.Handler) http.Handler {
	origins := allowedOrigins
	if isDevelopment || len(origins) == 0 {
		origins = []string{"*"}
	}

	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: corsMethods,
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: corsExposedHeaders,
		MaxAge:         300,
	})
}
