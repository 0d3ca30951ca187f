package errors

import (
	"net/http"

	"github.com/go-chi/render"
)

// Error codes carried by APIError and echoed as the error_code extension of
// problem responses.
const (
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeNotFound         = "NOT_FOUND"
	CodeRateLimited      = "RATE_LIMIT_EXCEEDED"
	CodeUnavailable      = "SERVICE_UNAVAILABLE"
)

// APIError is a request-level failure raised before a report is generated:
// an unreadable body or a field that failed validation.
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Render implements render.Renderer
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// ValidationError is one failed request field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is the Details payload of a VALIDATION_FAILED error.
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// Fields returns the failed field names in request order.
func (v ValidationErrors) Fields() []string {
	fields := make([]string, len(v.Errors))
	for i, e := range v.Errors {
		fields[i] = e.Field
	}
	return fields
}

// InvalidRequestWithError reports a body or query that could not be decoded.
func InvalidRequestWithError(err error) *APIError {
	return &APIError{
		StatusCode: http.StatusBadRequest,
		ErrorCode:  CodeInvalidRequest,
		Message:    "Invalid request format",
		Details:    err.Error(),
	}
}

// NewValidationErrors reports every failed field at once.
func NewValidationErrors(errs []ValidationError) *APIError {
	return &APIError{
		StatusCode: http.StatusBadRequest,
		ErrorCode:  CodeValidationFailed,
		Message:    "Request validation failed",
		Details:    ValidationErrors{Errors: errs},
	}
}

// FieldError is NewValidationErrors for a single field.
func FieldError(field, message string) *APIError {
	return NewValidationErrors([]ValidationError{{Field: field, Message: message}})
}
