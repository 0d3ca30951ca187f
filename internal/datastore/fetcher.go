package datastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"fmrreport/internal/config"
	"fmrreport/pkg/contracts/domain"
)

// queryDateLayout is how the window bounds are bound to the query.
const queryDateLayout = "2006-01-02"

var (
	// ErrUnsupportedDriver is returned for a driver name with no dialect.
	ErrUnsupportedDriver = errors.New("unsupported database driver")
)

// SQLFetcher reads measurement rows for a date window from the FMR database.
type SQLFetcher struct {
	db      *sql.DB
	ownsDB  bool
	dialect Dialect
	query   string
	timeout time.Duration
	logger  *slog.Logger
	tracer  trace.Tracer
}

// Option configures an SQLFetcher.
type Option func(*SQLFetcher)

// WithQueryTimeout bounds each Fetch. Zero means no bound beyond the caller's context.
func WithQueryTimeout(d time.Duration) Option {
	return func(f *SQLFetcher) { f.timeout = d }
}

// WithLogger sets the fetcher's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *SQLFetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// New wraps an existing pool. The caller keeps ownership of db.
func New(db *sql.DB, dialect Dialect, opts ...Option) *SQLFetcher {
	f := &SQLFetcher{
		db:      db,
		dialect: dialect,
		query:   dialect.MeasurementQuery(),
		logger:  slog.Default(),
		tracer:  otel.Tracer("fmrreport.datastore"),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = f.logger.With(slog.String("component", "datastore"), slog.String("driver", dialect.Name))
	return f
}

// Open creates a pool from configuration. The returned fetcher owns the pool
// and Close releases it. No connection is made until the first Fetch or Ping.
func Open(cfg config.DatabaseConfig, logger *slog.Logger) (*SQLFetcher, error) {
	dialect, err := DialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}

	dsn, err := cfg.ConnectionString()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(dialect.DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", dialect.Name, err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	f := New(db, dialect, WithQueryTimeout(cfg.QueryTimeout), WithLogger(logger))
	f.ownsDB = true
	return f, nil
}

// Fetch returns every measurement whose indent was created in
// [rng.Start, rng.End). The connection used is released before Fetch returns,
// whether the query succeeded or not.
func (f *SQLFetcher) Fetch(ctx context.Context, rng domain.DateRange) ([]domain.MeasurementRow, error) {
	start := rng.Start.Format(queryDateLayout)
	end := rng.End.Format(queryDateLayout)

	ctx, span := f.tracer.Start(ctx, "datastore.fetch",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", f.dialect.Name),
			attribute.String("range.start", start),
			attribute.String("range.end_exclusive", end),
		))
	defer span.End()

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	rows, err := f.fetch(ctx, start, end)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		f.logger.ErrorContext(ctx, "measurement fetch failed",
			slog.String("start", start),
			slog.String("end_exclusive", end),
			slog.String("error", err.Error()))
		return nil, err
	}

	span.SetAttributes(attribute.Int("rows", len(rows)))
	f.logger.DebugContext(ctx, "measurements fetched",
		slog.String("start", start),
		slog.String("end_exclusive", end),
		slog.Int("rows", len(rows)))

	return rows, nil
}

func (f *SQLFetcher) fetch(ctx context.Context, start, end string) ([]domain.MeasurementRow, error) {
	conn, err := f.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			f.logger.WarnContext(ctx, "failed to release connection", slog.String("error", cerr.Error()))
		}
	}()

	result, err := conn.QueryContext(ctx, f.query, start, end)
	if err != nil {
		return nil, fmt.Errorf("measurement query failed: %w", err)
	}
	defer result.Close()

	var rows []domain.MeasurementRow
	for result.Next() {
		row, err := scanMeasurement(result)
		if err != nil {
			return nil, fmt.Errorf("failed to scan measurement row %d: %w", len(rows)+1, err)
		}
		rows = append(rows, row)
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("failed to read measurement rows: %w", err)
	}

	return rows, nil
}

// Ping checks that the database is reachable.
func (f *SQLFetcher) Ping(ctx context.Context) error {
	if err := f.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%s ping failed: %w", f.dialect.Name, err)
	}
	return nil
}

// Stats reports connection pool figures.
func (f *SQLFetcher) Stats() sql.DBStats {
	return f.db.Stats()
}

// Close releases the pool if the fetcher opened it.
func (f *SQLFetcher) Close() error {
	if !f.ownsDB {
		return nil
	}
	return f.db.Close()
}
