package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tip_service_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tip_service_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// WebSocket metrics
	WebSocketConnectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tip_service_websocket_connections_total",
			Help: "Total number of WebSocket connections",
		},
	)

	WebSocketConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tip_service_websocket_connections_active",
			Help: "Number of active WebSocket connections",
		},
	)

	// Session metrics
	SessionsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tip_service_sessions_active",
			Help: "Number of mounted view sessions",
		},
		[]string{"kind"},
	)

	// Feedback metrics
	FeedbackSubmitTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tip_service_feedback_submit_total",
			Help: "Total number of feedback submissions",
		},
		[]string{"status"},
	)

	// Tip decode metrics
	SectionDecodeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tip_service_section_decode_total",
			Help: "Total number of optional tip section decodes",
		},
		[]string{"section", "status"},
	)

	// Reverse geocoding metrics
	LookupTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tip_service_lookup_total",
			Help: "Total number of reverse geocoding lookups",
		},
		[]string{"provider", "status"},
	)

	// Ledger upstream client metrics
	UpstreamCommandTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tip_service_upstream_command_total",
			Help: "Total number of ledger commands",
		},
		[]string{"method", "status"},
	)
)
