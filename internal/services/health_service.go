package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"fmrreport/internal/infrastructure"
	"fmrreport/pkg/contracts"
)

// Status values reported by the probes.
const (
	StatusOK       = "ok"
	StatusReady    = "ready"
	StatusNotReady = "not_ready"
	StatusAlive    = "alive"
)

// Pinger checks that a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthService provides health check functionality
type HealthService struct {
	version     string
	buildTime   string
	buildID     string
	dataSource  Pinger
	runtime     *infrastructure.RuntimeMetrics
	pingTimeout time.Duration
	startTime   time.Time
	logger      *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Runtime   map[string]interface{}   `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// NewHealthService creates a health service. dataSource and rm may be nil.
func NewHealthService(version, buildTime, buildID string, dataSource Pinger, rm *infrastructure.RuntimeMetrics, logger *slog.Logger) *HealthService {
	logger = serviceLogger(logger, "health_service")

	logger.Info("HealthService initialized",
		slog.String("version", version),
		slog.String("build_time", buildTime),
		slog.String("build_id", buildID),
		slog.Bool("data_source", dataSource != nil))

	return &HealthService{
		version:     version,
		buildTime:   buildTime,
		buildID:     buildID,
		dataSource:  dataSource,
		runtime:     rm,
		pingTimeout: 5 * time.Second,
		startTime:   time.Now(),
		logger:      logger,
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	hs.logger.DebugContext(ctx, "HealthCheck: performing health check",
		slog.String("uptime", time.Since(hs.startTime).String()))

	return HealthStatus{
		Status:    StatusOK,
		Timestamp: time.Now(),
		Version:   hs.version,
	}
}

// ReadinessCheck pings the data source. The service is ready only when the
// measurement database answers.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    StatusReady,
		Timestamp: time.Now(),
		Version:   hs.version,
		Services: map[string]ServiceHealth{
			"database": hs.checkDataSource(ctx),
		},
	}

	for name, service := range status.Services {
		if service.Status != StatusReady {
			status.Status = StatusNotReady
			hs.logger.WarnContext(ctx, "dependency not ready",
				slog.String("service", name),
				slog.String("message", service.Message))
		}
	}

	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    StatusAlive,
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime:   hs.runtimeInfo(),
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	result := map[string]interface{}{
		"version":       hs.version,
		"report_layout": contracts.ReportLayoutVersion,
		"api_version":   contracts.APIVersion,
		"go_version":    runtime.Version(),
		"os":            runtime.GOOS,
		"arch":          runtime.GOARCH,
		"uptime":        time.Since(hs.startTime).Seconds(),
		"start_time":    hs.startTime.Format(time.RFC3339),
		"current_time":  time.Now().Format(time.RFC3339),
	}

	if hs.buildTime != "" {
		result["build_time"] = hs.buildTime
	}
	if hs.buildID != "" {
		result["build_id"] = hs.buildID
	}

	return result
}

func (hs *HealthService) checkDataSource(ctx context.Context) ServiceHealth {
	if hs.dataSource == nil {
		return ServiceHealth{Status: StatusNotReady, Message: "data source not configured"}
	}

	ctx, cancel := context.WithTimeout(ctx, hs.pingTimeout)
	defer cancel()

	start := time.Now()
	if err := hs.dataSource.Ping(ctx); err != nil {
		return ServiceHealth{Status: StatusNotReady, Message: err.Error()}
	}
	return ServiceHealth{
		Status:  StatusReady,
		Message: "database reachable",
		Latency: time.Since(start).String(),
	}
}

func (hs *HealthService) runtimeInfo() map[string]interface{} {
	info := map[string]interface{}{
		"uptime":     time.Since(hs.startTime).Seconds(),
		"go_version": runtime.Version(),
		"goroutines": runtime.NumGoroutine(),
	}
	if hs.runtime == nil {
		return info
	}

	snap := hs.runtime.Snapshot()
	info["heap_alloc_bytes"] = snap.HeapAllocBytes
	info["db_open_connections"] = snap.OpenConnections
	info["db_in_use"] = snap.InUse
	info["db_idle"] = snap.Idle
	info["db_wait_count"] = snap.WaitCount
	return info
}
