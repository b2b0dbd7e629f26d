package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics.
var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartsynth_http_requests_total",
			Help: "Total HTTP requests handled",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "smartsynth_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// Business metrics, updated from the service layer.
var (
	// GenerationsTotal counts completed generations by category and domain.
	GenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartsynth_generations_total",
			Help: "Total completed generation requests",
		},
		[]string{"category", "domain"},
	)

	// RecordsGenerated counts synthesized records by category.
	RecordsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartsynth_records_generated_total",
			Help: "Total synthetic records produced",
		},
		[]string{"category"},
	)

	// DownloadsTotal counts successful artifact downloads.
	DownloadsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "smartsynth_downloads_total",
			Help: "Total successful artifact downloads",
		},
	)
)

// Metrics returns a middleware recording request counts and latencies.
//
// The path label uses chi's ROUTE PATTERN (e.g. /api/v1/files/{id}), not
// the raw URL, so per-artifact IDs can't blow up metric cardinality.
func Metrics() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			path := chi.RouteContext(r.Context()).RoutePattern()
			if path == "" {
				path = "unmatched"
			}

			httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
			httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}
