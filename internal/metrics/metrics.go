// Package metrics provides Prometheus HTTP metrics middleware and the
// counters for posts API calls and UI outcomes.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	apiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "posts_api_request_duration_seconds",
			Help:    "Duration of calls to the remote posts API",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op", "status"},
	)

	mutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "posts_mutations_total",
			Help: "Create, update and delete submissions by outcome",
		},
		[]string{"op", "outcome"},
	)

	notificationsPresented = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notifications_presented_total",
			Help: "Notifications that became visible",
		},
	)

	activeSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sessions_active",
			Help: "Browser sessions held in memory",
		},
	)
)

// ObserveAPI records one call to the posts API. status is 0 on transport failure.
func ObserveAPI(op string, status int, started time.Time) {
	apiRequestDuration.WithLabelValues(op, strconv.Itoa(status)).Observe(time.Since(started).Seconds())
}

// Mutation counts a submission outcome ("success", "failure", "rejected").
func Mutation(op, outcome string) {
	mutationsTotal.WithLabelValues(op, outcome).Inc()
}

func NotificationPresented() {
	notificationsPresented.Inc()
}

func SessionOpened() {
	activeSessions.Inc()
}

func SessionExpired() {
	activeSessions.Dec()
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{w, http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware returns HTTP middleware that records Prometheus metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		wrapped := newResponseWriter(w)
		next.ServeHTTP(wrapped, r)

		// Use chi's route pattern if available to avoid high cardinality
		path := r.URL.Path
		if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
			if pattern := routeCtx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(wrapped.statusCode)

		httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}
