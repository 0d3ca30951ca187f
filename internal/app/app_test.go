package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fmrreport/internal/config"
	"fmrreport/internal/infrastructure"
	"fmrreport/internal/shared/testutil"
	"fmrreport/pkg/contracts/domain"
)

// stubSource serves fixed rows for January 2024 and nothing else.
type stubSource struct {
	rows    []domain.MeasurementRow
	pingErr error
}

func (s *stubSource) Fetch(ctx context.Context, rng domain.DateRange) ([]domain.MeasurementRow, error) {
	if rng.Start.Month() != time.January {
		return nil, nil
	}
	return s.rows, nil
}

func (s *stubSource) Ping(ctx context.Context) error { return s.pingErr }

func (s *stubSource) Stats() sql.DBStats { return sql.DBStats{OpenConnections: 1, Idle: 1} }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Server.Port = 0
	cfg.Security.RateLimit.Enabled = false
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config, providers *infrastructure.OTelProviders) *Application {
	t.Helper()
	app, err := New(cfg, quietLogger(), providers, &stubSource{rows: testutil.SampleMeasurements()})
	require.NoError(t, err)
	return app
}

func serve(app *Application, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	app.Router.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestNew_Routes(t *testing.T) {
	app := newTestApp(t, testConfig(), nil)

	tests := []struct {
		name        string
		method      string
		target      string
		wantStatus  int
		wantType    string
		wantHeaders map[string]string
	}{
		{"form", http.MethodGet, "/", http.StatusOK, "text/html; charset=utf-8", nil},
		{"health", http.MethodGet, "/api/health", http.StatusOK, "application/json", nil},
		{"ready", http.MethodGet, "/api/health/ready", http.StatusOK, "application/json", nil},
		{"live", http.MethodGet, "/api/health/live", http.StatusOK, "application/json", nil},
		{"version", http.MethodGet, "/api/version", http.StatusOK, "application/json", nil},
		{
			"report", http.MethodGet, "/api/reports/machine-data?start_date=2024-01-01&end_date=2024-01-31",
			http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			map[string]string{
				"Content-Disposition": "attachment; filename=Machine_Data_2024-01-01_2024-01-31.xlsx",
				"X-Report-Rows":       "4",
			},
		},
		{"report trailing slash", http.MethodGet, "/api/reports/machine-data/?start_date=2024-01-01&end_date=2024-01-01&format=csv", http.StatusOK, "text/csv; charset=utf-8", nil},
		{"bad date", http.MethodGet, "/api/reports/machine-data?start_date=2024-1-1&end_date=2024-01-31", http.StatusBadRequest, "application/json", nil},
		{"no data", http.MethodGet, "/api/reports/machine-data?start_date=2024-03-01&end_date=2024-03-31", http.StatusNotFound, "application/json", nil},
		{"unknown route", http.MethodGet, "/api/unknown", http.StatusNotFound, "application/json", nil},
		{"wrong method", http.MethodDelete, "/api/reports/machine-data", http.StatusMethodNotAllowed, "application/json", nil},
		{"metrics disabled", http.MethodGet, "/metrics", http.StatusNotFound, "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(app, tt.method, tt.target)

			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantType != "" {
				assert.Contains(t, w.Header().Get("Content-Type"), tt.wantType)
			}
			for k, v := range tt.wantHeaders {
				assert.Equal(t, v, w.Header().Get(k), k)
			}
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
			assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
		})
	}
}

func TestNew_NoDataProblem(t *testing.T) {
	app := newTestApp(t, testConfig(), nil)

	w := serve(app, http.MethodGet, "/api/reports/machine-data?start_date=2024-03-01&end_date=2024-03-31")

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "No data available for the selected date range.", body["detail"])
	assert.Equal(t, w.Header().Get("X-Request-ID"), body["trace_id"])
}

func TestNew_APIKeys(t *testing.T) {
	cfg := testConfig()
	cfg.Security.APIKeys = map[string]string{"secret-key": "qa-dashboard"}
	app := newTestApp(t, cfg, nil)

	target := "/api/reports/machine-data?start_date=2024-01-01&end_date=2024-01-31"
	assert.Equal(t, http.StatusUnauthorized, serve(app, http.MethodGet, target).Code)

	r := httptest.NewRequest(http.MethodGet, target, nil)
	r.Header.Set("X-API-Key", "secret-key")
	w := httptest.NewRecorder()
	app.Router.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, http.StatusOK, serve(app, http.MethodGet, "/").Code, "form is not behind the key")
}

func TestNew_NotReady(t *testing.T) {
	app, err := New(testConfig(), quietLogger(), nil, &stubSource{pingErr: errors.New("connection refused")})
	require.NoError(t, err)

	assert.Equal(t, http.StatusServiceUnavailable, serve(app, http.MethodGet, "/api/health/ready").Code)
}

func TestNew_WithTelemetry(t *testing.T) {
	telemetry := testConfig().Telemetry
	telemetry.TraceExporter = "none"
	providers, err := infrastructure.InitializeOTel(infrastructure.NewOTelConfig(telemetry, "test"), quietLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	app := newTestApp(t, testConfig(), providers)
	defer app.RuntimeMetrics.Unregister()

	require.NotNil(t, app.Metrics)
	require.NotNil(t, app.RuntimeMetrics)
	assert.Equal(t, 1, app.RuntimeMetrics.Snapshot().OpenConnections)

	require.Equal(t, http.StatusOK, serve(app, http.MethodGet, "/api/reports/machine-data?start_date=2024-01-01&end_date=2024-01-31").Code)

	w := serve(app, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "report_requests_total")

	assert.Equal(t, http.StatusOK, serve(app, http.MethodGet, "/metrics/runtime").Code)
}

func TestApplication_createServer(t *testing.T) {
	cfg := testConfig()
	cfg.Server.Port = 9191
	cfg.Server.WriteTimeout = 10 * time.Second
	cfg.Server.ReportTimeout = 90 * time.Second

	app := newTestApp(t, cfg, nil)

	assert.Equal(t, ":9191", app.Server.Addr)
	assert.Equal(t, 95*time.Second, app.Server.WriteTimeout, "write timeout covers the report timeout")
	assert.Equal(t, cfg.Server.ReadTimeout, app.Server.ReadTimeout)
	assert.Equal(t, app.Router, app.Server.Handler)
}

func TestApplication_StartStop(t *testing.T) {
	app := newTestApp(t, testConfig(), nil)

	closed := false
	app.closeDataSource = func() error {
		closed = true
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, app.Start(ctx, cancel))
	require.NoError(t, app.Stop(context.Background()))
	assert.True(t, closed, "data source closed on stop")
}

func TestApplication_getCORSConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Security.AllowedOrigins = []string{"http://quality.plant.local"}
	app := newTestApp(t, cfg, nil)

	cors := app.getCORSConfig()
	assert.Equal(t, []string{"http://quality.plant.local"}, cors.AllowedOrigins)
	assert.NotContains(t, cors.AllowedMethods, http.MethodDelete)

	r := httptest.NewRequest(http.MethodOptions, "/api/reports/machine-data", nil)
	r.Header.Set("Origin", "http://quality.plant.local")
	w := httptest.NewRecorder()
	app.Router.ServeHTTP(w, r)
	assert.Equal(t, "http://quality.plant.local", w.Header().Get("Access-Control-Allow-Origin"))
}
