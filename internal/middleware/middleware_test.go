package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "fmrreport/internal/errors"
	"fmrreport/internal/infrastructure"
	"fmrreport/internal/shared/testutil"
)

func okHandler(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	})
}

func problemBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestRequestID(t *testing.T) {
	t.Run("generates id", func(t *testing.T) {
		var seen string
		h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = GetRequestID(r.Context())
			assert.Equal(t, seen, infrastructure.GetTraceID(r.Context()))
		}))

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Len(t, seen, 36)
		assert.Equal(t, seen, w.Header().Get(RequestIDHeader))
	})

	t.Run("keeps incoming id", func(t *testing.T) {
		var seen string
		h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = GetRequestID(r.Context())
		}))

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set(RequestIDHeader, "upstream-7")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)

		assert.Equal(t, "upstream-7", seen)
		assert.Equal(t, "upstream-7", w.Header().Get(RequestIDHeader))
	})
}

func TestStructuredLogger(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)

	h := RequestID(StructuredLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("missing"))
	})))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/reports/machine-data?start_date=x", nil))

	records := logs.GetRecords()
	require.Len(t, records, 2)
	done := records[1]
	assert.Equal(t, "request completed", done.Message)
	assert.Equal(t, "WARN", done.Level.String())
	assert.Equal(t, int64(http.StatusNotFound), done.Attrs["status"])
	assert.Equal(t, "start_date=x", done.Attrs["query"])
}

func TestRecoverer(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)

	h := Recoverer(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/x", nil)
	r = r.WithContext(infrastructure.WithTraceID(r.Context(), "t-1"))
	assert.NotPanics(t, func() { h.ServeHTTP(w, r) })

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := problemBody(t, w)
	assert.Equal(t, apierrors.TypeInternal, body["type"])
	assert.Equal(t, "t-1", body["trace_id"])
	assert.True(t, logs.ContainsMessage("panic recovered"))
}

func TestRateLimiter(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	rl := NewRateLimiter(0.5, 2, logger)
	h := rl.Handler(okHandler("ok"))

	request := func(addr string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = addr
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w
	}

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := request("10.1.1.1:5000")
		codes = append(codes, w.Code)
		if w.Code == http.StatusTooManyRequests {
			assert.Equal(t, "2", w.Header().Get("Retry-After"))
			assert.Equal(t, apierrors.TypeRateLimit, problemBody(t, w)["type"])
		}
	}
	assert.Equal(t, []int{200, 200, 429}, codes)
	assert.True(t, logs.ContainsAttr("client", "10.1.1.1"))

	assert.Equal(t, http.StatusTooManyRequests, request("10.1.1.1:6000").Code, "same host, other port shares the bucket")
	assert.Equal(t, http.StatusOK, request("10.2.2.2:5000").Code, "other clients keep their own budget")
}

func TestRateLimiter_SweepsIdleClients(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	rl := NewRateLimiter(1, 1, logger)

	now := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.bucket("10.0.0.1")
	now = now.Add(2 * clientIdleTTL)
	rl.bucket("10.0.0.2")

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.NotContains(t, rl.clients, "10.0.0.1")
	assert.Contains(t, rl.clients, "10.0.0.2")
}

func TestTimeout(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	t.Run("fast handler", func(t *testing.T) {
		h := Timeout(time.Second, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Disposition", "attachment; filename=x.csv")
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte("a,b"))
		}))

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "a,b", w.Body.String())
		assert.Equal(t, "attachment; filename=x.csv", w.Header().Get("Content-Disposition"))
	})

	t.Run("slow handler", func(t *testing.T) {
		release := make(chan struct{})
		lateErr := make(chan error, 1)
		h := Timeout(20*time.Millisecond, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
			<-release
			_, err := w.Write([]byte("late"))
			lateErr <- err
		}))

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		close(release)
		assert.ErrorIs(t, <-lateErr, http.ErrHandlerTimeout)

		assert.Equal(t, http.StatusGatewayTimeout, w.Code)
		assert.Equal(t, apierrors.TypeTimeout, problemBody(t, w)["type"])
		assert.NotContains(t, w.Body.String(), "late")
	})

	t.Run("panic propagates", func(t *testing.T) {
		h := Timeout(time.Second, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("inner")
		}))
		assert.Panics(t, func() {
			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		})
	})
}

func TestCORS(t *testing.T) {
	h := CORS(CORSConfig{AllowedOrigins: []string{"http://quality.local"}})(okHandler("ok"))

	t.Run("allowed origin", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Origin", "http://quality.local")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)

		assert.Equal(t, "http://quality.local", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "Content-Disposition")
	})

	t.Run("other origin", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Origin", "http://evil.example")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)

		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodOptions, "/", nil)
		r.Header.Set("Origin", "http://quality.local")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
	})

	t.Run("wildcard", func(t *testing.T) {
		wh := CORS(CORSConfig{AllowedOrigins: []string{"*"}})(okHandler("ok"))
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Origin", "http://anything")
		w := httptest.NewRecorder()
		wh.ServeHTTP(w, r)

		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.True(t, strings.Contains(w.Header().Get("Access-Control-Allow-Methods"), http.MethodPost))
	})
}
