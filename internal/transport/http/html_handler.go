package http

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"fmrreport/internal/middleware"
	api "fmrreport/pkg/contracts/api/v1"
	"fmrreport/pkg/contracts/domain"
)

//go:embed templates/report_form.html
var templateFS embed.FS

var formTemplate = template.Must(template.ParseFS(templateFS, "templates/report_form.html"))

// formPage is the data rendered into the report form.
type formPage struct {
	Title     string
	StartDate string
	EndDate   string
	Format    string
	Message   string
	Severity  string
}

// FormHandler serves the date-range form. A successful POST downloads the
// report; any reportable condition re-renders the form with its message.
type FormHandler struct {
	service ReportGenerator
	title   string
	logger  *slog.Logger
}

// NewFormHandler creates the form handler
func NewFormHandler(service ReportGenerator, title string, logger *slog.Logger) *FormHandler {
	if title == "" {
		title = "Machine Data Report"
	}
	return &FormHandler{
		service: service,
		title:   title,
		logger:  logger.With(slog.String("handler", "form")),
	}
}

// ServeForm handles GET /
func (h *FormHandler) ServeForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, formPage{Format: string(domain.ReportFormatExcel)})
}

// Submit handles POST /
func (h *FormHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, middleware.DefaultMaxBodySize)
	if err := r.ParseForm(); err != nil {
		h.render(w, r, http.StatusBadRequest, formPage{Message: "Invalid form submission.", Severity: "error"})
		return
	}

	req := api.MachineDataReportRequestFromValues(r.PostForm)
	page := formPage{StartDate: req.StartDate, EndDate: req.EndDate, Format: req.Format}

	report, err := h.service.Generate(ctx, req.StartDate, req.EndDate, req.ReportFormat())
	if err != nil {
		status, severity := formStatus(err)
		page.Message = domain.UserMessage(err)
		page.Severity = severity

		h.logger.Log(ctx, levelFor(status), "report form rejected",
			slog.Int("status", status),
			slog.String("error", err.Error()))

		h.render(w, r, status, page)
		return
	}

	writeReport(w, report)
}

func (h *FormHandler) render(w http.ResponseWriter, r *http.Request, status int, page formPage) {
	page.Title = h.title

	var buf bytes.Buffer
	if err := formTemplate.Execute(&buf, page); err != nil {
		h.logger.ErrorContext(r.Context(), "form template failed", slog.String("error", err.Error()))
		http.Error(w, "Error rendering page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// formStatus mirrors the API status codes so the page and the API agree.
func formStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidDateFormat):
		return http.StatusBadRequest, "error"
	case errors.Is(err, domain.ErrNoData):
		return http.StatusNotFound, "warning"
	case errors.Is(err, domain.ErrDataSource):
		return http.StatusBadGateway, "error"
	default:
		return http.StatusInternalServerError, "error"
	}
}

func levelFor(status int) slog.Level {
	if status >= http.StatusInternalServerError {
		return slog.LevelError
	}
	return slog.LevelWarn
}
