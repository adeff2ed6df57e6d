package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/teemow/workmate/internal/instrumentation"
	"github.com/teemow/workmate/internal/logging"
)

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	return r.ResponseWriter.Write(b)
}

// instrument records every request and turns handler panics into a
// failure page.
func instrument(next http.Handler, metrics *instrumentation.Metrics, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		defer func() {
			if p := recover(); p != nil {
				logging.WithOperation(logger, "http.request").Error("handler panic",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					logging.Err(fmt.Errorf("panic: %v", p)),
					slog.String("stack", string(debug.Stack())))
				if !rec.wroteHeader {
					rec.Header().Set("Content-Type", "text/html; charset=utf-8")
					rec.WriteHeader(http.StatusInternalServerError)
					_ = renderChat(rec, pageData{Banner: bannerInternal})
				}
			}
			metrics.RecordHTTPRequest(r.Context(), r.Method, routeLabel(r), rec.status, time.Since(start))
		}()

		next.ServeHTTP(rec, r)
	})
}

// routeLabel bounds the path label to registered patterns.
func routeLabel(r *http.Request) string {
	if r.Pattern != "" {
		return r.Pattern
	}
	return "unmatched"
}

// securityHeaders sets headers applied to every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
