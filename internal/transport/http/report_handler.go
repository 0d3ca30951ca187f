package http

import (
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "fmrreport/internal/errors"
	"fmrreport/internal/middleware"
	api "fmrreport/pkg/contracts/api/v1"
	"fmrreport/pkg/contracts/domain"
)

// ReportHandler serves report downloads with RFC 7807 errors
type ReportHandler struct {
	service       ReportGenerator
	validator     *middleware.Validator
	defaultFormat domain.ReportFormat
	logger        *slog.Logger
	errorHandler  *apierrors.ErrorHandler
}

// NewReportHandler creates a new report handler. An empty defaultFormat means xlsx.
func NewReportHandler(service ReportGenerator, defaultFormat domain.ReportFormat, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ReportHandler {
	if defaultFormat == "" {
		defaultFormat = domain.ReportFormatExcel
	}
	return &ReportHandler{
		service:       service,
		validator:     middleware.NewValidator(),
		defaultFormat: defaultFormat,
		logger:        logger.With(slog.String("component", "report_handler")),
		errorHandler:  errorHandler,
	}
}

// Routes returns the report routes
func (h *ReportHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/machine-data", h.GetMachineData)
	r.With(
		middleware.LimitBody(middleware.DefaultMaxBodySize),
		middleware.ContentTypeValidator("application/json", "application/x-www-form-urlencoded"),
	).Post("/machine-data", h.PostMachineData)

	return r
}

// GetMachineData handles GET /api/reports/machine-data?start_date=&end_date=&format=
func (h *ReportHandler) GetMachineData(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, api.MachineDataReportRequestFromValues(r.URL.Query()))
}

// PostMachineData handles POST /api/reports/machine-data with a JSON or form body
func (h *ReportHandler) PostMachineData(w http.ResponseWriter, r *http.Request) {
	req, err := decodeReportRequest(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.serve(w, r, req)
}

func (h *ReportHandler) serve(w http.ResponseWriter, r *http.Request, req api.MachineDataReportRequest) {
	ctx := r.Context()

	if err := h.validate(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	format := h.defaultFormat
	if req.Format != "" {
		format = req.ReportFormat()
	}
	middleware.NoteReportWindow(ctx, req.StartDate, req.EndDate, string(format))

	report, err := h.service.Generate(ctx, req.StartDate, req.EndDate, format)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.DebugContext(ctx, "sending report",
		slog.String("filename", report.Filename),
		slog.Int("rows", report.RowCount))

	writeReport(w, report)
}

// validate reports malformed or missing dates as the domain date error so
// every caller sees the same message; other fields fail as plain validation.
func (h *ReportHandler) validate(req api.MachineDataReportRequest) error {
	err := h.validator.ValidateStruct(req)
	if err == nil {
		return nil
	}
	for _, field := range middleware.FailedFields(err) {
		if field == "start_date" || field == "end_date" {
			return fmt.Errorf("%w: %s", domain.ErrInvalidDateFormat, field)
		}
	}
	return err
}

func decodeReportRequest(r *http.Request) (api.MachineDataReportRequest, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var req api.MachineDataReportRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			return req, bodyError(err)
		}
		req.Format = strings.ToLower(strings.TrimSpace(req.Format))
		return req, nil
	}

	if err := r.ParseForm(); err != nil {
		return api.MachineDataReportRequest{}, bodyError(err)
	}
	return api.MachineDataReportRequestFromValues(r.PostForm), nil
}

// bodyError keeps an oversized body distinct from a malformed one.
func bodyError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return err
	}
	return apierrors.InvalidRequestWithError(err)
}

// writeReport streams the artifact as an attachment.
func writeReport(w http.ResponseWriter, report *domain.Report) {
	h := w.Header()
	h.Set("Content-Type", report.ContentType)
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": report.Filename}))
	h.Set("Content-Length", strconv.Itoa(len(report.Content)))
	h.Set("X-Report-Rows", strconv.Itoa(report.RowCount))
	h.Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(report.Content)
}
