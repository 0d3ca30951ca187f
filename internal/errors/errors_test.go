package errors

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError_Render(t *testing.T) {
	tests := []struct {
		name       string
		apiError   *APIError
		wantStatus int
		wantCode   string
	}{
		{"invalid request", InvalidRequestWithError(io.EOF), http.StatusBadRequest, CodeInvalidRequest},
		{"validation", FieldError("end_date", "end_date is required"), http.StatusBadRequest, CodeValidationFailed},
		{"unavailable", &APIError{StatusCode: http.StatusServiceUnavailable, ErrorCode: CodeUnavailable, Message: "down"}, http.StatusServiceUnavailable, CodeUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/test", nil)

			require.NoError(t, render.Render(w, r, tt.apiError))
			assert.Equal(t, tt.wantStatus, w.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body["error_code"])
			assert.Equal(t, tt.apiError.Message, body["message"])
		})
	}
}

func TestInvalidRequestWithError(t *testing.T) {
	err := InvalidRequestWithError(fmt.Errorf("unexpected EOF"))

	assert.Equal(t, "Invalid request format", err.Error())
	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	assert.Equal(t, CodeInvalidRequest, err.ErrorCode)
	assert.Equal(t, "unexpected EOF", err.Details)
}

func TestFieldError(t *testing.T) {
	err := FieldError("format", "format must be one of: xlsx, csv")

	require.IsType(t, ValidationErrors{}, err.Details)
	details := err.Details.(ValidationErrors)
	require.Len(t, details.Errors, 1)
	assert.Equal(t, "format must be one of: xlsx, csv", details.Errors[0].Message)
	assert.Equal(t, []string{"format"}, details.Fields())
}

func TestValidationErrors_Fields(t *testing.T) {
	assert.Empty(t, ValidationErrors{}.Fields())

	v := ValidationErrors{Errors: []ValidationError{
		{Field: "start_date", Message: "a"},
		{Field: "end_date", Message: "b"},
	}}
	assert.Equal(t, []string{"start_date", "end_date"}, v.Fields())
}

func TestNewValidationErrors_JSON(t *testing.T) {
	err := NewValidationErrors([]ValidationError{
		{Field: "start_date", Message: "start_date is required"},
		{Field: "end_date", Message: "end_date is required"},
	})

	data, mErr := json.Marshal(err)
	require.NoError(t, mErr)

	var decoded struct {
		StatusCode int    `json:"status_code"`
		ErrorCode  string `json:"error_code"`
		Details    struct {
			Errors []ValidationError `json:"errors"`
		} `json:"details"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, http.StatusBadRequest, decoded.StatusCode)
	assert.Equal(t, CodeValidationFailed, decoded.ErrorCode)
	assert.Len(t, decoded.Details.Errors, 2)
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	problem := NewProblemDetails(http.StatusNotFound, TypeNoData, "No Data", "nothing", "/api/reports/machine-data").
		WithExtension("trace_id", "abc").
		WithExtension("status", 999)

	data, err := json.Marshal(problem)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, TypeNoData, body["type"])
	assert.Equal(t, "No Data", body["title"])
	assert.EqualValues(t, http.StatusNotFound, body["status"], "extensions cannot override standard members")
	assert.Equal(t, "nothing", body["detail"])
	assert.Equal(t, "/api/reports/machine-data", body["instance"])
	assert.Equal(t, "abc", body["trace_id"])
}

func TestProblemDetails_OmitsEmptyMembers(t *testing.T) {
	data, err := json.Marshal(&ProblemDetails{Type: TypeInternal, Title: "x", Status: 500})
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &body))
	assert.NotContains(t, body, "detail")
	assert.NotContains(t, body, "instance")

	// WithExtension works on a zero-value Extensions map
	p := &ProblemDetails{}
	p.WithExtension("k", "v")
	assert.Equal(t, "v", p.Extensions["k"])
}
