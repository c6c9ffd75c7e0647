// Package metrics exposes Prometheus counters for the dashboard API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_http_requests_total",
			Help: "HTTP requests served, by route pattern and status.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dashboard_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	ingestRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_ingest_runs_total",
			Help: "Upload pipeline runs by table and final state.",
		},
		[]string{"table", "state"},
	)

	ingestRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_ingest_rows_total",
			Help: "Rows handled by committed uploads, committed or excluded.",
		},
		[]string{"table", "result"},
	)

	loginAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_login_attempts_total",
			Help: "Admin login attempts by outcome.",
		},
		[]string{"outcome"},
	)
)

// ObserveIngest records a finished pipeline run.
func ObserveIngest(table, state string, committed, excluded int) {
	ingestRunsTotal.WithLabelValues(table, state).Inc()
	if committed > 0 {
		ingestRowsTotal.WithLabelValues(table, "committed").Add(float64(committed))
	}
	if excluded > 0 {
		ingestRowsTotal.WithLabelValues(table, "excluded").Add(float64(excluded))
	}
}

// ObserveLogin records a login attempt outcome: success, fail or rate_limited.
func ObserveLogin(outcome string) {
	loginAttemptsTotal.WithLabelValues(outcome).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware counts requests by the ServeMux pattern that handled them, so
// ids in paths do not create new series. It must wrap the mux directly for
// the pattern to be visible.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(wrapped.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
