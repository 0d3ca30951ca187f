package infrastructure

import (
	"context"
	"database/sql"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// PoolStatsFunc reports the current state of a database/sql pool.
type PoolStatsFunc func() sql.DBStats

// RuntimeSnapshot is a point-in-time view of the process and its DB pool.
type RuntimeSnapshot struct {
	Goroutines      int
	HeapAllocBytes  uint64
	UptimeSeconds   float64
	OpenConnections int
	InUse           int
	Idle            int
	WaitCount       int64
}

// RuntimeMetrics exposes process and connection pool gauges. Values are read
// on each collection rather than pushed on a timer.
type RuntimeMetrics struct {
	started   time.Time
	poolStats PoolStatsFunc
	reg       metric.Registration
}

// NewRuntimeMetrics registers observable gauges on meter. poolStats may be nil
// when no database is configured.
func NewRuntimeMetrics(meter metric.Meter, poolStats PoolStatsFunc) (*RuntimeMetrics, error) {
	rm := &RuntimeMetrics{started: time.Now(), poolStats: poolStats}

	goroutines, err := meter.Int64ObservableGauge(
		"process_goroutines",
		metric.WithDescription("Number of active goroutines"),
	)
	if err != nil {
		return nil, err
	}

	heapAlloc, err := meter.Int64ObservableGauge(
		"process_heap_alloc_bytes",
		metric.WithDescription("Bytes of allocated heap objects"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	uptime, err := meter.Float64ObservableGauge(
		"process_uptime_seconds",
		metric.WithDescription("Process uptime in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	openConns, err := meter.Int64ObservableGauge(
		"db_pool_open_connections",
		metric.WithDescription("Established connections to the measurement database"),
	)
	if err != nil {
		return nil, err
	}

	inUse, err := meter.Int64ObservableGauge(
		"db_pool_in_use_connections",
		metric.WithDescription("Connections currently checked out of the pool"),
	)
	if err != nil {
		return nil, err
	}

	waitCount, err := meter.Int64ObservableGauge(
		"db_pool_wait_count",
		metric.WithDescription("Total number of connection waits"),
	)
	if err != nil {
		return nil, err
	}

	rm.reg, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		snap := rm.Snapshot()
		o.ObserveInt64(goroutines, int64(snap.Goroutines))
		o.ObserveInt64(heapAlloc, int64(snap.HeapAllocBytes))
		o.ObserveFloat64(uptime, snap.UptimeSeconds)
		if rm.poolStats != nil {
			o.ObserveInt64(openConns, int64(snap.OpenConnections))
			o.ObserveInt64(inUse, int64(snap.InUse))
			o.ObserveInt64(waitCount, snap.WaitCount)
		}
		return nil
	}, goroutines, heapAlloc, uptime, openConns, inUse, waitCount)
	if err != nil {
		return nil, err
	}

	return rm, nil
}

// Snapshot reads the current values.
func (rm *RuntimeMetrics) Snapshot() RuntimeSnapshot {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	snap := RuntimeSnapshot{
		Goroutines:     runtime.NumGoroutine(),
		HeapAllocBytes: ms.HeapAlloc,
		UptimeSeconds:  time.Since(rm.started).Seconds(),
	}
	if rm.poolStats != nil {
		stats := rm.poolStats()
		snap.OpenConnections = stats.OpenConnections
		snap.InUse = stats.InUse
		snap.Idle = stats.Idle
		snap.WaitCount = stats.WaitCount
	}
	return snap
}

// Unregister detaches the gauges from the meter.
func (rm *RuntimeMetrics) Unregister() error {
	if rm.reg == nil {
		return nil
	}
	return rm.reg.Unregister()
}
