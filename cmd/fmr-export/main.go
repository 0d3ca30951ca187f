// Command fmr-export writes one machine data report to disk without
// starting the HTTP server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"fmrreport/internal/config"
	"fmrreport/internal/datastore"
	"fmrreport/internal/infrastructure"
	"fmrreport/internal/services"
	"fmrreport/pkg/contracts/domain"
)

var errConfig = errors.New("invalid settings")

type exportOptions struct {
	start  string
	end    string
	outDir string
	format string
}

func main() {
	opts := exportOptions{}
	flag.StringVar(&opts.start, "start", "", "first day of the report (YYYY-MM-DD)")
	flag.StringVar(&opts.end, "end", "", "last day of the report (YYYY-MM-DD)")
	flag.StringVar(&opts.outDir, "out", ".", "directory to write the report into")
	flag.StringVar(&opts.format, "format", "", "xlsx or csv (defaults to the configured format)")
	flag.Parse()

	if err := run(opts); err != nil {
		fmt.Fprintln(os.Stderr, messageFor(err))
		os.Exit(1)
	}
}

func run(opts exportOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("%w: configuration: %v", errConfig, err)
	}
	if opts.format == "" {
		opts.format = cfg.Report.DefaultFormat
	}

	// Report bytes never go to stdout, so logs stay on stderr.
	logger := infrastructure.NewLogger(os.Stderr, cfg.Logging.Level)

	fetcher, err := datastore.Open(cfg.Database, logger)
	if err != nil {
		return &domain.DataSourceError{Cause: err}
	}
	defer fetcher.Close()

	ctx, stop := signal.NotifyContext(infrastructure.EnsureTraceID(context.Background()), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.Server.ReportTimeout)
	defer cancel()

	svc := services.NewReportService(fetcher, services.ReportOptions{
		FilenamePrefix: cfg.Report.FilenamePrefix,
		SheetName:      cfg.Report.SheetName,
		CSVBOM:         cfg.Report.CSVBOM,
	}, nil, logger)

	path, err := export(ctx, svc, opts, os.Stdout)
	if err != nil {
		infrastructure.WithError(logger, err).ErrorContext(ctx, "export failed",
			slog.String("start", opts.start),
			slog.String("end", opts.end))
		return err
	}
	logger.InfoContext(ctx, "report exported", slog.String("path", path))
	return nil
}

type reportGenerator interface {
	Generate(ctx context.Context, startDate, endDate string, format domain.ReportFormat) (*domain.Report, error)
}

// export generates the report and writes it into opts.outDir, returning the
// written path. A short summary line goes to w.
func export(ctx context.Context, svc reportGenerator, opts exportOptions, w io.Writer) (string, error) {
	format, ok := domain.ParseReportFormat(opts.format)
	if !ok {
		return "", fmt.Errorf("%w: %q", services.ErrUnsupportedFormat, opts.format)
	}

	report, err := svc.Generate(ctx, opts.start, opts.end, format)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(opts.outDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(opts.outDir, report.Filename)
	if err := os.WriteFile(path, report.Content, 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	fmt.Fprintf(w, "%s (%d rows)\n", path, report.RowCount)
	return path, nil
}

// messageFor is the line printed on failure. Format and settings errors are
// shown verbatim; the rest use the requester-facing wording.
func messageFor(err error) string {
	if errors.Is(err, services.ErrUnsupportedFormat) || errors.Is(err, errConfig) {
		return err.Error()
	}
	return domain.UserMessage(err)
}
