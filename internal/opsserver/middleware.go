package opsserver

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"asset-ingest/internal/logging"
	"asset-ingest/internal/metrics"

	"github.com/gorilla/mux"
)

// statusRecorder captures the status code and bytes written.
type statusRecorder struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
	wroteHeader  bool
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *statusRecorder) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += int64(n)
	return n, err
}

func (rw *statusRecorder) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

var healthCheckPaths = map[string]bool{
	"/healthz": true,
	"/livez":   true,
	"/readyz":  true,
}

// requestLogger logs each request at debug level. Health check requests are skipped
// unless logHealthChecks is set.
func requestLogger(log logging.Logger, logHealthChecks bool) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !logHealthChecks && healthCheckPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rw := newStatusRecorder(w)
			next.ServeHTTP(rw, r)

			log.Debug("%s %s %s %d %d %dms",
				sanitizeLogField(clientIP(r)),
				sanitizeLogField(r.Method),
				sanitizeLogField(r.URL.Path),
				rw.statusCode,
				rw.bytesWritten,
				time.Since(start).Milliseconds(),
			)
		})
	}
}

// recordMetrics labels requests with the matched route name to keep
// cardinality bounded.
func recordMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := "unmatched"
		if cur := mux.CurrentRoute(r); cur != nil && cur.GetName() != "" {
			route = cur.GetName()
		}

		start := time.Now()
		rw := newStatusRecorder(w)
		next.ServeHTTP(rw, r)

		metrics.OpsRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rw.statusCode)).Inc()
		metrics.OpsRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// sanitizeLogField strips control characters that could forge log lines.
func sanitizeLogField(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n' || r == '\r':
			b.WriteRune(' ')
		case r == '\x1b' || r == '\x00':
			continue
		case r < 0x20 && r != '\t':
			continue
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
