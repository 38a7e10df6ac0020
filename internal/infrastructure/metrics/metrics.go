package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Chat-Gateway Metrics
var (
	// Request counters
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "conexao",
			Subsystem: "chat_gateway",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// Request duration histogram
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "conexao",
			Subsystem: "chat_gateway",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"method", "endpoint"},
	)

	// Queue depth gauge
	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "conexao",
			Subsystem: "chat_gateway",
			Name:      "turn_queue_depth",
			Help:      "Inbound turn queue depth",
		},
	)

	// DB query duration
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "conexao",
			Subsystem: "chat_gateway",
			Name:      "db_query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"query_type"},
	)
)

// RecordRequest records an HTTP request
func RecordRequest(method, endpoint, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint).Observe(durationSec)
}

// SetQueueDepth sets the current turn queue depth
func SetQueueDepth(depth int) {
	QueueDepth.Set(float64(depth))
}

// RecordDBQuery records a database query
func RecordDBQuery(queryType string, durationSec float64) {
	DBQueryDuration.WithLabelValues(queryType).Observe(durationSec)
}
