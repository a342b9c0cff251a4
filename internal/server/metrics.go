package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lapwatch_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lapwatch_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Stopwatch metrics
	stopwatchOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lapwatch_stopwatch_operations_total",
			Help: "Total number of stopwatch operations",
		},
		[]string{"op", "result"}, // result: success or an error type
	)

	lapDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lapwatch_lap_duration_seconds",
			Help:    "Duration of recorded laps in seconds",
			Buckets: []float64{.001, .01, .05, .1, .25, .5, 1, 5, 30, 60, 300},
		},
	)

	registeredStopwatches = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lapwatch_stopwatches_registered",
			Help: "Number of stopwatches in the registry",
		},
	)

	// Rate limiting metrics
	rateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lapwatch_rate_limit_hits_total",
			Help: "Total number of rate limit hits",
		},
	)

	// WebSocket metrics
	websocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lapwatch_websocket_active_connections",
			Help: "Number of active WebSocket connections",
		},
	)

	websocketMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lapwatch_websocket_messages_total",
			Help: "Total number of WebSocket messages",
		},
		[]string{"direction"}, // direction: sent, received
	)
)
