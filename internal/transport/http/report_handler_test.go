package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apierrors "fmrreport/internal/errors"
	"fmrreport/internal/shared/testutil"
	"fmrreport/pkg/contracts/domain"
)

// MockReportGenerator is a testify mock of ReportGenerator.
type MockReportGenerator struct {
	mock.Mock
}

func (m *MockReportGenerator) Generate(ctx context.Context, startDate, endDate string, format domain.ReportFormat) (*domain.Report, error) {
	args := m.Called(ctx, startDate, endDate, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Report), args.Error(1)
}

func sampleReport(format domain.ReportFormat) *domain.Report {
	return &domain.Report{
		Filename:    "Machine_Data_2024-01-01_2024-01-31." + format.Extension(),
		Format:      format,
		ContentType: format.ContentType(),
		Content:     []byte("PK-report-bytes"),
		RowCount:    4,
	}
}

func newReportRouter(t *testing.T, gen ReportGenerator) http.Handler {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	return NewReportHandler(gen, domain.ReportFormatExcel, logger, apierrors.NewErrorHandler(logger, false)).Routes()
}

func decodeProblem(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestReportHandler_GetMachineData(t *testing.T) {
	gen := new(MockReportGenerator)
	gen.On("Generate", mock.Anything, "2024-01-01", "2024-01-31", domain.ReportFormatExcel).
		Return(sampleReport(domain.ReportFormatExcel), nil).Once()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/machine-data?start_date=2024-01-01&end_date=2024-01-31", nil)
	newReportRouter(t, gen).ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	gen.AssertExpectations(t)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", w.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=Machine_Data_2024-01-01_2024-01-31.xlsx", w.Header().Get("Content-Disposition"))
	assert.Equal(t, "15", w.Header().Get("Content-Length"))
	assert.Equal(t, "4", w.Header().Get("X-Report-Rows"))
	assert.Equal(t, "PK-report-bytes", w.Body.String())
}

func TestReportHandler_GetMachineData_CSV(t *testing.T) {
	gen := new(MockReportGenerator)
	gen.On("Generate", mock.Anything, "2024-01-01", "2024-01-31", domain.ReportFormatCSV).
		Return(sampleReport(domain.ReportFormatCSV), nil).Once()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/machine-data?start_date=2024-01-01&end_date=2024-01-31&format=csv", nil)
	newReportRouter(t, gen).ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".csv")
}

func TestReportHandler_PostMachineData(t *testing.T) {
	t.Run("json body", func(t *testing.T) {
		gen := new(MockReportGenerator)
		gen.On("Generate", mock.Anything, "2024-01-01", "2024-01-31", domain.ReportFormatExcel).
			Return(sampleReport(domain.ReportFormatExcel), nil).Once()

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/machine-data",
			strings.NewReader(`{"start_date":"2024-01-01","end_date":"2024-01-31","format":"excel"}`))
		r.Header.Set("Content-Type", "application/json")
		newReportRouter(t, gen).ServeHTTP(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		gen.AssertExpectations(t)
	})

	t.Run("form body", func(t *testing.T) {
		gen := new(MockReportGenerator)
		gen.On("Generate", mock.Anything, "2024-01-01", "2024-01-31", domain.ReportFormatExcel).
			Return(sampleReport(domain.ReportFormatExcel), nil).Once()

		form := url.Values{"start_date": {"2024-01-01"}, "end_date": {"2024-01-31"}}
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/machine-data", strings.NewReader(form.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		newReportRouter(t, gen).ServeHTTP(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		gen.AssertExpectations(t)
	})

	t.Run("malformed json", func(t *testing.T) {
		gen := new(MockReportGenerator)
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/machine-data", strings.NewReader(`{"start_date":`))
		r.Header.Set("Content-Type", "application/json")
		newReportRouter(t, gen).ServeHTTP(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("oversized body", func(t *testing.T) {
		gen := new(MockReportGenerator)
		body := `{"start_date":"` + strings.Repeat("9", 70*1024) + `"}`
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/machine-data", strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
		newReportRouter(t, gen).ServeHTTP(w, r)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})

	t.Run("unsupported content type", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/machine-data", strings.NewReader("<x/>"))
		r.Header.Set("Content-Type", "application/xml")
		newReportRouter(t, new(MockReportGenerator)).ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	})
}

func TestReportHandler_Validation(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		wantType string
	}{
		{"missing start", "end_date=2024-01-31", apierrors.TypeInvalidDateFormat},
		{"wrong layout", "start_date=01/01/2024&end_date=2024-01-31", apierrors.TypeInvalidDateFormat},
		{"impossible date", "start_date=2024-02-30&end_date=2024-03-01", apierrors.TypeInvalidDateFormat},
		{"leading space", "start_date=%202024-01-05&end_date=2024-01-31", apierrors.TypeInvalidDateFormat},
		{"trailing space", "start_date=2024-01-05&end_date=2024-01-31%20", apierrors.TypeInvalidDateFormat},
		{"unknown format", "start_date=2024-01-01&end_date=2024-01-31&format=pdf", apierrors.TypeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := new(MockReportGenerator)
			w := httptest.NewRecorder()
			newReportRouter(t, gen).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/machine-data?"+tt.query, nil))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			body := decodeProblem(t, w)
			assert.Equal(t, tt.wantType, body["type"])
			if tt.wantType == apierrors.TypeInvalidDateFormat {
				assert.Equal(t, "Incorrect date format. Please use YYYY-MM-DD.", body["detail"])
			}
			gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestReportHandler_PostPaddedDate(t *testing.T) {
	gen := new(MockReportGenerator)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/machine-data",
		strings.NewReader(`{"start_date":" 2024-01-05","end_date":"2024-01-31"}`))
	r.Header.Set("Content-Type", "application/json")
	newReportRouter(t, gen).ServeHTTP(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeProblem(t, w)
	assert.Equal(t, apierrors.TypeInvalidDateFormat, body["type"])
	assert.Equal(t, "Incorrect date format. Please use YYYY-MM-DD.", body["detail"])
	gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReportHandler_ServiceErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		wantDetail string
	}{
		{
			name:       "no data",
			err:        domain.ErrNoData,
			wantStatus: http.StatusNotFound,
			wantType:   apierrors.TypeNoData,
			wantDetail: "No data available for the selected date range.",
		},
		{
			name:       "data source",
			err:        &domain.DataSourceError{Cause: errors.New("connection refused")},
			wantStatus: http.StatusBadGateway,
			wantType:   apierrors.TypeDataSource,
			wantDetail: "Database error: connection refused",
		},
		{
			name:       "generation",
			err:        domain.ErrReportGeneration,
			wantStatus: http.StatusInternalServerError,
			wantType:   apierrors.TypeReportGeneration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := new(MockReportGenerator)
			gen.On("Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, tt.err)

			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/machine-data?start_date=2024-01-01&end_date=2024-01-31", nil)
			newReportRouter(t, gen).ServeHTTP(w, r)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
			body := decodeProblem(t, w)
			assert.Equal(t, tt.wantType, body["type"])
			if tt.wantDetail != "" {
				assert.Equal(t, tt.wantDetail, body["detail"])
			}
		})
	}
}
