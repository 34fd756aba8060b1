// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "iptrack_http_requests_total",
			Help: "Total HTTP requests by method, route and status code",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "iptrack_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// LookupRequests counts third-party lookups; outcome is success,
	// failure or rejected (circuit open).
	LookupRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "iptrack_lookup_requests_total",
			Help: "Third-party lookup calls by service and outcome",
		},
		[]string{"service", "outcome"},
	)

	LookupDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "iptrack_lookup_duration_seconds",
			Help:    "Third-party lookup latency in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"service"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "iptrack_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	VisitsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "iptrack_visits_ingested_total",
			Help: "Visit submissions by outcome",
		},
		[]string{"outcome"},
	)

	AuthEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "iptrack_auth_events_total",
			Help: "Signup, login and token verification outcomes",
		},
		[]string{"event", "outcome"},
	)
)

// ObserveHTTP records one finished request.
func ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveLookup records one third-party call.
func ObserveLookup(service, outcome string, elapsed time.Duration) {
	LookupRequests.WithLabelValues(service, outcome).Inc()
	LookupDuration.WithLabelValues(service).Observe(elapsed.Seconds())
}
