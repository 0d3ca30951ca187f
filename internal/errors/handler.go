package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"

	"github.com/go-chi/render"

	"fmrreport/internal/infrastructure"
	"fmrreport/pkg/contracts/domain"
)

// ErrorHandler provides centralized error handling
type ErrorHandler struct {
	logger       *slog.Logger
	includeStack bool
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *slog.Logger, includeStack bool) *ErrorHandler {
	return &ErrorHandler{
		logger:       logger.With(slog.String("component", "error_handler")),
		includeStack: includeStack,
	}
}

// HandleError converts any error to RFC 7807 format and responds
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	problem := h.ErrorToProblem(err, r)
	traceID := infrastructure.GetTraceID(r.Context())
	problem.WithExtension("trace_id", traceID)

	level := slog.LevelWarn
	if problem.Status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(r.Context(), level, "request failed",
		slog.String("error", err.Error()),
		slog.Int("status", problem.Status),
		slog.String("problem_type", problem.Type),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)

	if h.includeStack && problem.Status >= http.StatusInternalServerError {
		problem.WithExtension("stack", getStackTrace())
	}

	render.Render(w, r, problem)
}

// reportOutcome maps a report sentinel to its problem. Order matters: a
// database timeout wraps both ErrDataSource and context.DeadlineExceeded and
// must surface as a data source error.
type reportOutcome struct {
	target error
	status int
	typ    string
	title  string
	detail func(error) string
}

var reportOutcomes = []reportOutcome{
	{domain.ErrInvalidDateFormat, http.StatusBadRequest, TypeInvalidDateFormat, "Invalid Date Format", fixed(domain.MessageInvalidDateFormat)},
	{domain.ErrNoData, http.StatusNotFound, TypeNoData, "No Data", fixed(domain.MessageNoData)},
	{domain.ErrDataSource, http.StatusBadGateway, TypeDataSource, "Data Source Error", domain.UserMessage},
	{domain.ErrReportGeneration, http.StatusInternalServerError, TypeReportGeneration, "Report Generation Failed", fixed(domain.MessageInternal)},
}

func fixed(msg string) func(error) string {
	return func(error) string { return msg }
}

// ErrorToProblem converts an error to RFC 7807 Problem Details
func (h *ErrorHandler) ErrorToProblem(err error, r *http.Request) *ProblemDetails {
	path := r.URL.Path

	for _, o := range reportOutcomes {
		if errors.Is(err, o.target) {
			return NewProblemDetails(o.status, o.typ, o.title, o.detail(err), path)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewProblemDetails(http.StatusGatewayTimeout, TypeTimeout, "Request Timeout",
			"The request took too long to process and was cancelled", path)
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return h.apiErrorToProblem(apiErr, path)
	}

	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return NewProblemDetails(http.StatusRequestEntityTooLarge, TypePayloadTooLarge, "Payload Too Large",
			fmt.Sprintf("The request body exceeds the maximum allowed size of %d bytes", maxBytesErr.Limit), path)
	}

	return NewProblemDetails(http.StatusInternalServerError, TypeInternal, "Internal Server Error",
		"An unexpected error occurred while processing your request", path)
}

func (h *ErrorHandler) apiErrorToProblem(apiErr *APIError, path string) *ProblemDetails {
	problemType := TypeInternal
	switch apiErr.ErrorCode {
	case CodeValidationFailed, CodeInvalidRequest:
		problemType = TypeValidation
	case CodeNotFound:
		problemType = TypeNotFound
	case CodeRateLimited:
		problemType = TypeRateLimit
	case CodeUnavailable:
		problemType = TypeServiceDown
	}

	problem := NewProblemDetails(
		apiErr.StatusCode,
		problemType,
		http.StatusText(apiErr.StatusCode),
		apiErr.Message,
		path,
	).WithExtension("error_code", apiErr.ErrorCode)

	if apiErr.Details != nil {
		problem.WithExtension("details", apiErr.Details)
	}
	return problem
}

// NotFound answers unmatched routes with a problem document.
func (h *ErrorHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.routeProblem(w, r, http.StatusNotFound, TypeNotFound, "The requested resource was not found")
}

// MethodNotAllowed answers a known route hit with the wrong method.
func (h *ErrorHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.routeProblem(w, r, http.StatusMethodNotAllowed, TypeMethodNotAllowed,
		fmt.Sprintf("Method %s is not allowed for this endpoint", r.Method))
}

func (h *ErrorHandler) routeProblem(w http.ResponseWriter, r *http.Request, status int, problemType, detail string) {
	h.logger.DebugContext(r.Context(), "unrouted request",
		slog.Int("status", status),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)
	problem := NewProblemDetails(status, problemType, http.StatusText(status), detail, r.URL.Path).
		WithExtension("trace_id", infrastructure.GetTraceID(r.Context()))
	render.Render(w, r, problem)
}

func getStackTrace() string {
	buf := make([]byte, 1024*8)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}
