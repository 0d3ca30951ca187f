package middleware

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	apierrors "fmrreport/internal/errors"
)

const (
	apiClientKey ctxKey = iota + 1
	auditWindowKey
)

// APIClient returns the client name recorded by APIKeyAuth.
func APIClient(ctx context.Context) string {
	client, _ := ctx.Value(apiClientKey).(string)
	return client
}

// APIKeyAuth checks X-API-Key against validKeys (key to client name). An
// empty map lets every request through.
func APIKeyAuth(logger *slog.Logger, validKeys map[string]string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(validKeys) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			apiKey := r.Header.Get("X-API-Key")
			if apiKey == "" {
				logger.WarnContext(ctx, "missing API key",
					"method", r.Method,
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
				)
				writeProblem(w, r, http.StatusUnauthorized, apierrors.TypeUnauthorized, "Unauthorized", "API key required")
				return
			}

			clientName, valid := lookupKey(validKeys, apiKey)
			if !valid {
				logger.WarnContext(ctx, "invalid API key",
					"method", r.Method,
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
				)
				writeProblem(w, r, http.StatusUnauthorized, apierrors.TypeUnauthorized, "Unauthorized", "Invalid API key")
				return
			}

			ctx = context.WithValue(ctx, apiClientKey, clientName)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func lookupKey(validKeys map[string]string, candidate string) (string, bool) {
	for key, client := range validKeys {
		if subtle.ConstantTimeCompare([]byte(key), []byte(candidate)) == 1 {
			return client, true
		}
	}
	return "", false
}

// SecureHeaders provides configurable security headers
type SecureHeaders struct {
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool

	ContentSecurityPolicy string
	XFrameOptions         string
	XContentTypeOptions   string
	ReferrerPolicy        string
	PermissionsPolicy     string
}

// DefaultSecureHeaders returns headers suited to the report form and API.
func DefaultSecureHeaders() *SecureHeaders {
	return &SecureHeaders{
		HSTSMaxAge:            63072000, // 2 years
		HSTSIncludeSubdomains: true,
		ContentSecurityPolicy: strings.Join([]string{
			"default-src 'self'",
			"style-src 'self' 'unsafe-inline'",
			"img-src 'self' data:",
			"form-action 'self'",
			"frame-ancestors 'none'",
			"base-uri 'self'",
		}, "; "),
		XFrameOptions:       "DENY",
		XContentTypeOptions: "nosniff",
		ReferrerPolicy:      "strict-origin-when-cross-origin",
		PermissionsPolicy:   "camera=(), geolocation=(), microphone=(), payment=(), usb=()",
	}
}

// Handler sets the configured headers on every response. HSTS is only sent
// over TLS.
func (sh *SecureHeaders) Handler(next http.Handler) http.Handler {
	static := make([][2]string, 0, 5)
	for _, kv := range [][2]string{
		{"Content-Security-Policy", sh.ContentSecurityPolicy},
		{"X-Frame-Options", sh.XFrameOptions},
		{"X-Content-Type-Options", sh.XContentTypeOptions},
		{"Referrer-Policy", sh.ReferrerPolicy},
		{"Permissions-Policy", sh.PermissionsPolicy},
	} {
		if kv[1] != "" {
			static = append(static, kv)
		}
	}

	var hsts string
	if sh.HSTSMaxAge > 0 {
		hsts = fmt.Sprintf("max-age=%d", sh.HSTSMaxAge)
		if sh.HSTSIncludeSubdomains {
			hsts += "; includeSubDomains"
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		for _, kv := range static {
			h.Set(kv[0], kv[1])
		}
		if hsts != "" && r.TLS != nil {
			h.Set("Strict-Transport-Security", hsts)
		}
		next.ServeHTTP(w, r)
	})
}

// reportAudit is filled in by the report handler once the request is decoded.
type reportAudit struct {
	mu                 sync.Mutex
	start, end, format string
}

// NoteReportWindow records the resolved report window for AuditLog. It is a
// no-op outside an audited route.
func NoteReportWindow(ctx context.Context, start, end, format string) {
	a, ok := ctx.Value(auditWindowKey).(*reportAudit)
	if !ok {
		return
	}
	a.mu.Lock()
	a.start, a.end, a.format = start, end, format
	a.mu.Unlock()
}

// AuditLog records who downloaded which report window. The window defaults to
// the query string and is replaced by NoteReportWindow for POST bodies.
func AuditLog(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			q := r.URL.Query()
			audit := &reportAudit{start: q.Get("start_date"), end: q.Get("end_date"), format: q.Get("format")}
			ctx := context.WithValue(r.Context(), auditWindowKey, audit)

			ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(ww, r.WithContext(ctx))

			client := APIClient(ctx)
			if client == "" {
				client = "anonymous"
			}

			audit.mu.Lock()
			defer audit.mu.Unlock()
			logger.InfoContext(ctx, "report access",
				"event_type", "report_download",
				"client", client,
				"method", r.Method,
				"start_date", audit.start,
				"end_date", audit.end,
				"format", audit.format,
				"remote_addr", r.RemoteAddr,
				"status", ww.statusCode,
				"bytes", ww.bytesWritten,
				"duration", time.Since(start).String(),
			)
		})
	}
}
