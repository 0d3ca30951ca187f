package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"fmrreport/internal/shared/testutil"
	"fmrreport/pkg/contracts/domain"
)

func postForm(t *testing.T, h *FormHandler, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.Submit(w, r)
	return w
}

func TestFormHandler_ServeForm(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	h := NewFormHandler(new(MockReportGenerator), "", logger)

	w := httptest.NewRecorder()
	h.ServeForm(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	body := w.Body.String()
	assert.Contains(t, body, "<title>Machine Data Report</title>")
	assert.Contains(t, body, `name="start_date"`)
	assert.Contains(t, body, `name="end_date"`)
	assert.NotContains(t, body, `role="alert"`)
}

func TestFormHandler_Submit_Downloads(t *testing.T) {
	gen := new(MockReportGenerator)
	gen.On("Generate", mock.Anything, "2024-01-01", "2024-01-31", domain.ReportFormatExcel).
		Return(sampleReport(domain.ReportFormatExcel), nil).Once()

	logger, _ := testutil.NewTestLogger(t)
	w := postForm(t, NewFormHandler(gen, "", logger), url.Values{
		"start_date": {"2024-01-01"},
		"end_date":   {"2024-01-31"},
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "attachment; filename=Machine_Data_2024-01-01_2024-01-31.xlsx", w.Header().Get("Content-Disposition"))
	assert.Equal(t, "PK-report-bytes", w.Body.String())
	gen.AssertExpectations(t)
}

func TestFormHandler_Submit_ShowsMessage(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantText   string
		wantClass  string
	}{
		{"invalid date", domain.ErrInvalidDateFormat, http.StatusBadRequest, "Incorrect date format. Please use YYYY-MM-DD.", "message error"},
		{"no data", domain.ErrNoData, http.StatusNotFound, "No data available for the selected date range.", "message warning"},
		{"database", &domain.DataSourceError{Cause: errors.New("network unreachable")}, http.StatusBadGateway, "Database error: network unreachable", "message error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := new(MockReportGenerator)
			gen.On("Generate", mock.Anything, "2024-13-01", "2024-01-31", domain.ReportFormatCSV).Return(nil, tt.err)

			logger, logs := testutil.NewTestLogger(t)
			w := postForm(t, NewFormHandler(gen, "", logger), url.Values{
				"start_date": {"2024-13-01"},
				"end_date":   {"2024-01-31"},
				"format":     {"csv"},
			})

			assert.Equal(t, tt.wantStatus, w.Code)
			body := w.Body.String()
			assert.Contains(t, body, tt.wantText)
			assert.Contains(t, body, tt.wantClass)
			assert.Contains(t, body, `value="2024-13-01"`, "inputs are kept")
			assert.Contains(t, body, `<option value="csv" selected>`)
			assert.True(t, logs.ContainsMessage("report form rejected"))
		})
	}
}

func TestFormHandler_EscapesInput(t *testing.T) {
	gen := new(MockReportGenerator)
	gen.On("Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, domain.ErrInvalidDateFormat)

	logger, _ := testutil.NewTestLogger(t)
	w := postForm(t, NewFormHandler(gen, "", logger), url.Values{
		"start_date": {`"><script>alert(1)</script>`},
		"end_date":   {"2024-01-31"},
	})

	assert.NotContains(t, w.Body.String(), "<script>")
}
