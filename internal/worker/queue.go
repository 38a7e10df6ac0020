// Package worker dispatches inbound turns to the coordinator and
// delivers the reply back over the channel.
package worker

import (
	"context"
	"time"

	"conexao-server/services/chat-gateway/internal/domain/team"
	"conexao-server/services/chat-gateway/internal/infrastructure/metrics"
)

// InboundTurn is one webhook message scheduled for processing.
type InboundTurn struct {
	MessageID  string
	From       string
	Type       string
	Turn       team.Turn
	EnqueuedAt time.Time
}

// Queue is the in-memory buffer between the webhook handler and the
// worker pool. Turns for the same user are not serialized; two rapid
// messages may be answered out of order.
type Queue struct {
	ch chan InboundTurn
}

func NewQueue(size int) *Queue {
	if size <= 0 {
		size = 128
	}
	return &Queue{ch: make(chan InboundTurn, size)}
}

// Enqueue schedules a turn without blocking the webhook response. It
// reports false when the buffer is full and the turn was dropped.
func (q *Queue) Enqueue(turn InboundTurn) bool {
	turn.EnqueuedAt = time.Now()
	select {
	case q.ch <- turn:
		metrics.SetQueueDepth(len(q.ch))
		return true
	default:
		metrics.RecordTurn(turn.Type, metrics.TurnOutcomeDropped, 0)
		return false
	}
}

// Dequeue blocks until a turn is available or ctx is done.
func (q *Queue) Dequeue(ctx context.Context) (InboundTurn, bool) {
	select {
	case <-ctx.Done():
		return InboundTurn{}, false
	case turn := <-q.ch:
		metrics.SetQueueDepth(len(q.ch))
		return turn, true
	}
}

// Depth returns the number of buffered turns.
func (q *Queue) Depth() int {
	return len(q.ch)
}
