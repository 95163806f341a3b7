package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAllowedQueryParams(t *testing.T) {
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := AllowedQueryParams(zap.NewNop(), "category", "search", "ordering")(okHandler)

	tests := []struct {
		name   string
		query  string
		status int
	}{
		{name: "no parameters", query: "", status: http.StatusOK},
		{name: "all allowed", query: "?category=Books&search=lamp&ordering=-price", status: http.StatusOK},
		{name: "empty allowed value", query: "?category=", status: http.StatusOK},
		{name: "unknown parameter", query: "?color=red", status: http.StatusBadRequest},
		{name: "unknown mixed with allowed", query: "?category=Books&page=2", status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items"+tt.query, nil))
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestAllowedQueryParamsNamesOffenders(t *testing.T) {
	handler := AllowedQueryParams(zap.NewNop(), "search")(http.NotFoundHandler())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items?zeta=1&alpha=2", nil))

	require.Equal(t, http.StatusBadRequest, w.Code)
	body := w.Body.String()
	assert.Less(t, strings.Index(body, `"alpha"`), strings.Index(body, `"zeta"`))
}

func TestDecodeJSONObject(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
		fields  []string
	}{
		{name: "object", body: `{"name":"Desk","price":"1.00"}`, fields: []string{"name", "price"}},
		{name: "empty object", body: `{}`},
		{name: "array", body: `[1,2]`, wantErr: true},
		{name: "null", body: `null`, wantErr: true},
		{name: "malformed", body: `{"name":`, wantErr: true},
		{name: "trailing data", body: `{"name":"a"} {"name":"b"}`, wantErr: true},
		{name: "empty body", body: ``, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/items", strings.NewReader(tt.body))
			fields, err := DecodeJSONObject(httptest.NewRecorder(), req)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidBody))
				return
			}
			require.NoError(t, err)
			assert.Len(t, fields, len(tt.fields))
			for _, name := range tt.fields {
				assert.Contains(t, fields, name)
			}
		})
	}
}

func TestDecodeJSONObjectRejectsOversizedBody(t *testing.T) {
	body := `{"description":"` + strings.Repeat("x", MaxBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/items", strings.NewReader(body))

	_, err := DecodeJSONObject(httptest.NewRecorder(), req)
	assert.ErrorIs(t, err, ErrInvalidBody)
}
