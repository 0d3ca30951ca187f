package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"fmrreport/internal/infrastructure"
)

// MetricsHandler exposes Prometheus metrics and a JSON runtime snapshot
type MetricsHandler struct {
	prometheus http.Handler
	runtime    *infrastructure.RuntimeMetrics
}

// NewMetricsHandler creates a new metrics handler. Either argument may be nil.
func NewMetricsHandler(prometheus http.Handler, rm *infrastructure.RuntimeMetrics) *MetricsHandler {
	return &MetricsHandler{prometheus: prometheus, runtime: rm}
}

// Routes sets up the metrics routes
func (h *MetricsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.GetMetrics)
	r.Get("/runtime", h.GetRuntime)
	return r
}

// GetMetrics serves the Prometheus exposition format
func (h *MetricsHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	if h.prometheus == nil {
		http.Error(w, "metrics disabled", http.StatusNotFound)
		return
	}
	h.prometheus.ServeHTTP(w, r)
}

// GetRuntime returns process and connection pool figures as JSON
func (h *MetricsHandler) GetRuntime(w http.ResponseWriter, r *http.Request) {
	if h.runtime == nil {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, map[string]string{"status": "runtime metrics disabled"})
		return
	}

	snap := h.runtime.Snapshot()
	render.JSON(w, r, map[string]interface{}{
		"goroutines":          snap.Goroutines,
		"heap_alloc_bytes":    snap.HeapAllocBytes,
		"uptime_seconds":      snap.UptimeSeconds,
		"db_open_connections": snap.OpenConnections,
		"db_in_use":           snap.InUse,
		"db_idle":             snap.Idle,
		"db_wait_count":       snap.WaitCount,
	})
}
