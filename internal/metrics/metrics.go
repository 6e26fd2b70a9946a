package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "labconnect_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "labconnect_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Session metrics
	SessionsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "labconnect_sessions_created_total",
			Help: "Session create calls by outcome",
		},
		[]string{"outcome"}, // "new", "existing", "error"
	)

	SessionVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "labconnect_session_verifications_total",
			Help: "Session verify calls by result",
		},
		[]string{"result"}, // "valid", "invalid", "error"
	)

	SessionCodeCollisions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "labconnect_session_code_collisions_total",
			Help: "Generated session codes that collided with a live session",
		},
	)

	SessionsSwept = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "labconnect_sessions_swept_total",
			Help: "Expired sessions removed by the sweeper",
		},
	)

	// Relay metrics
	ConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "labconnect_connections_active",
			Help: "Currently connected websocket clients",
		},
	)

	MessagesRelayed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "labconnect_messages_relayed_total",
			Help: "Messages accepted for room fan-out",
		},
	)

	Deliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "labconnect_deliveries_total",
			Help: "Per-recipient event deliveries by outcome",
		},
		[]string{"outcome"}, // "delivered", "dropped"
	)

	RateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "labconnect_rate_limit_hits_total",
			Help: "Messages rejected by the per-connection rate limit",
		},
	)

	// Infrastructure metrics
	StoreLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "labconnect_session_store_latency_seconds",
			Help:    "Session store operation latency",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
		},
		[]string{"op"},
	)
)
