package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fmrreport/internal/services"
	"fmrreport/internal/shared/testutil"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthHandler(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	tests := []struct {
		name       string
		pinger     services.Pinger
		call       func(h *HealthHandler) http.HandlerFunc
		wantStatus int
		wantField  string
		wantValue  string
	}{
		{"health", nil, func(h *HealthHandler) http.HandlerFunc { return h.HealthCheck }, http.StatusOK, "status", "ok"},
		{"live", nil, func(h *HealthHandler) http.HandlerFunc { return h.LivenessCheck }, http.StatusOK, "status", "alive"},
		{"version", nil, func(h *HealthHandler) http.HandlerFunc { return h.Version }, http.StatusOK, "version", "1.2.0"},
		{
			"ready",
			pingerFunc(func(context.Context) error { return nil }),
			func(h *HealthHandler) http.HandlerFunc { return h.ReadinessCheck },
			http.StatusOK, "status", "ready",
		},
		{
			"not ready",
			pingerFunc(func(context.Context) error { return errors.New("refused") }),
			func(h *HealthHandler) http.HandlerFunc { return h.ReadinessCheck },
			http.StatusServiceUnavailable, "status", "not_ready",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(services.NewHealthService("1.2.0", "", "", tt.pinger, nil, logger), logger)

			w := httptest.NewRecorder()
			tt.call(h)(w, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantValue, body[tt.wantField])
		})
	}
}

func TestHealthHandler_Register(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	h := NewHealthHandler(services.NewHealthService("1.2.0", "", "", pingerFunc(func(context.Context) error { return nil }), nil, logger), logger)

	r := chi.NewRouter()
	h.Register(r)

	for _, path := range []string{"/api/health", "/api/health/ready", "/api/health/live", "/api/version"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}
