package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// Guard metrics
	GuardDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guard_decisions_total",
			Help: "Edge guard decisions by path class and action",
		},
		[]string{"class", "action"},
	)

	GuardCheckFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guard_check_failures_total",
			Help: "Password-check calls that failed open at a guard layer",
		},
		[]string{"layer"},
	)

	// Backend client metrics
	BackendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backend_request_duration_seconds",
			Help:    "Upstream backend call latency in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"operation", "status"},
	)

	// Session metrics
	SessionOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_operations_total",
			Help: "Session store operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	ProxyUnauthorized = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "proxy_unauthorized_total",
			Help: "Upstream 401 responses intercepted by the proxy",
		},
	)
)
