package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"glp/internal/adapters/http/perf"
)

// DefaultSlowRequest is used when Timing is given a non-positive threshold.
const DefaultSlowRequest = 200 * time.Millisecond

type requestIDKey struct{}

// RequestID returns the ID Timing assigned to the request, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// recorder remembers the status code written by the handler.
type recorder struct {
	http.ResponseWriter
	status int
}

func (rec *recorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

// Timing tags each request with an X-Request-ID, logs its duration and feeds the
// collector. Slow requests log at WARN, the rest at DEBUG. Health checks are
// passed through untimed. A nil collector only logs.
func Timing(threshold time.Duration, collector *perf.Collector) func(http.Handler) http.Handler {
	if threshold <= 0 {
		threshold = DefaultSlowRequest
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/healthz" {
				next.ServeHTTP(w, r)
				return
			}
			id := uuid.NewString()
			w.Header().Set("X-Request-ID", id)
			rec := &recorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()

			next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))

			d := time.Since(start)
			level := slog.LevelDebug
			if d >= threshold {
				level = slog.LevelWarn
			}
			slog.Log(r.Context(), level, "request_timing",
				"event", "request_completed",
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration_ms", float64(d.Microseconds())/1000,
				"slow", d >= threshold,
			)
			if collector != nil {
				collector.RecordRequest(r.Method, r.URL.Path, rec.status, d)
			}
		})
	}
}
