// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Backend request outcomes.
const (
	OutcomeOK           = "ok"
	OutcomeNetworkError = "network_error"
	OutcomeServerError  = "server_error"
	OutcomeRequestError = "request_error"
)

var (
	// BackendRequestsTotal counts search backend requests by outcome.
	BackendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "efinder_backend_requests_total",
			Help: "Search backend requests",
		},
		[]string{"outcome"},
	)

	// BackendRequestDuration tracks search backend latency.
	BackendRequestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "efinder_backend_request_duration_seconds",
			Help:    "Search backend request duration",
			Buckets: prometheus.DefBuckets,
		},
	)

	// HTTPRequestsTotal counts served HTTP requests by route and status code.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "efinder_http_requests_total",
			Help: "HTTP requests served",
		},
		[]string{"route", "code"},
	)

	// StaleResponsesTotal counts backend responses discarded because a newer
	// search had already been issued.
	StaleResponsesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "efinder_stale_responses_total",
			Help: "Backend responses discarded as stale",
		},
	)

	// ActiveSessions reports the number of live browser sessions.
	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "efinder_active_sessions",
			Help: "Live web sessions",
		},
	)
)

func init() {
	prometheus.MustRegister(
		BackendRequestsTotal,
		BackendRequestDuration,
		HTTPRequestsTotal,
		StaleResponsesTotal,
		ActiveSessions,
	)
}

// ObserveBackendRequest records one backend round trip.
func ObserveBackendRequest(outcome string, d time.Duration) {
	BackendRequestsTotal.WithLabelValues(outcome).Inc()
	BackendRequestDuration.Observe(d.Seconds())
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
