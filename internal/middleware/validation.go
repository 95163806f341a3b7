package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"

	"item-catalog/internal/domain"

	"go.uber.org/zap"
)

// MaxBodyBytes bounds the size of JSON request bodies
const MaxBodyBytes = 1 << 20

// ErrInvalidBody is returned when a request body is not a JSON object
var ErrInvalidBody = errors.New("request body must be a JSON object")

// AllowedQueryParams rejects requests carrying query parameters outside the
// allow-list with a 400 validation response
func AllowedQueryParams(logger *zap.Logger, allowed ...string) func(http.Handler) http.Handler {
	allowSet := make(map[string]bool, len(allowed))
	for _, name := range allowed {
		allowSet[name] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var unknown []string
			for name := range r.URL.Query() {
				if !allowSet[name] {
					unknown = append(unknown, name)
				}
			}

			if len(unknown) > 0 {
				sort.Strings(unknown)
				errs := make([]domain.FieldError, 0, len(unknown))
				for _, name := range unknown {
					errs = append(errs, domain.FieldError{
						Field:   name,
						Message: "Unknown query parameter.",
					})
				}

				logger.Debug("Rejected unknown query parameters", zap.Strings("params", unknown))
				RespondWithValidationErrors(w, errs)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// DecodeJSONObject reads the request body as a JSON object, keeping each
// member raw so callers can tell absent, null and mistyped fields apart
func DecodeJSONObject(w http.ResponseWriter, r *http.Request) (map[string]json.RawMessage, error) {
	body := http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	decoder := json.NewDecoder(body)

	var fields map[string]json.RawMessage
	if err := decoder.Decode(&fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	if fields == nil {
		return nil, ErrInvalidBody
	}

	if _, err := decoder.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: unexpected data after JSON object", ErrInvalidBody)
	}

	return fields, nil
}
