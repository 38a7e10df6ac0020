package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Turn processing metrics
var (
	// Turn outcome counters
	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "conexao",
			Subsystem: "chat_gateway",
			Name:      "turns_total",
			Help:      "Total number of inbound turns processed",
		},
		[]string{"message_type", "outcome"},
	)

	// Turn duration histogram
	TurnDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "conexao",
			Subsystem: "chat_gateway",
			Name:      "turn_duration_seconds",
			Help:      "End-to-end turn processing duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 90, 120},
		},
		[]string{"message_type"},
	)

	// Engine call counters
	EngineCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "conexao",
			Subsystem: "chat_gateway",
			Name:      "engine_calls_total",
			Help:      "Total delegation engine calls",
		},
		[]string{"status"},
	)

	// Channel send counters
	ChannelSendsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "conexao",
			Subsystem: "chat_gateway",
			Name:      "channel_sends_total",
			Help:      "Total outbound channel messages",
		},
		[]string{"kind", "status"},
	)

	// Text chunk counter, incremented per segment of a chunked send
	ChannelChunksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "conexao",
			Subsystem: "chat_gateway",
			Name:      "channel_chunks_total",
			Help:      "Total text segments sent after chunking",
		},
	)

	// Audio interception counter
	MediaInterceptionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "conexao",
			Subsystem: "chat_gateway",
			Name:      "media_interceptions_total",
			Help:      "Total engine replies converted to audio attachments",
		},
	)
)

// Turn outcomes reported to TurnsTotal.
const (
	TurnOutcomeReplied = "replied"
	TurnOutcomePaused  = "paused"
	TurnOutcomeFailed  = "failed"
	TurnOutcomeDropped = "dropped"
)

// RecordTurn records one processed turn
func RecordTurn(messageType, outcome string, duration time.Duration) {
	TurnsTotal.WithLabelValues(messageType, outcome).Inc()
	TurnDuration.WithLabelValues(messageType).Observe(duration.Seconds())
}

// RecordEngineCall records a delegation engine call
func RecordEngineCall(status string) {
	EngineCallsTotal.WithLabelValues(status).Inc()
}

// RecordChannelSend records an outbound channel message
func RecordChannelSend(kind, status string) {
	ChannelSendsTotal.WithLabelValues(kind, status).Inc()
}

// RecordChunks records the segment count of one chunked text send
func RecordChunks(n int) {
	ChannelChunksTotal.Add(float64(n))
}

// RecordInterception records one audio path interception
func RecordInterception() {
	MediaInterceptionsTotal.Inc()
}
