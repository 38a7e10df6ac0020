package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Pool manages multiple turn workers.
type Pool struct {
	workers     []*Worker
	queue       *Queue
	coordinator Coordinator
	channel     Channel
	workerCount int
	turnTimeout time.Duration
	log         zerolog.Logger
	wg          sync.WaitGroup
}

// Config contains worker pool configuration.
type Config struct {
	WorkerCount int
	TurnTimeout time.Duration
}

// NewPool creates a new worker pool.
func NewPool(
	queue *Queue,
	coordinator Coordinator,
	channel Channel,
	cfg Config,
	log zerolog.Logger,
) *Pool {
	return &Pool{
		queue:       queue,
		coordinator: coordinator,
		channel:     channel,
		workerCount: cfg.WorkerCount,
		turnTimeout: cfg.TurnTimeout,
		log:         log.With().Str("component", "worker-pool").Logger(),
	}
}

// Start initializes and starts all workers.
func (p *Pool) Start(ctx context.Context) {
	p.log.Info().Int("worker_count", p.workerCount).Msg("starting worker pool")

	p.workers = make([]*Worker, p.workerCount)
	for i := 0; i < p.workerCount; i++ {
		worker := NewWorker(
			i+1,
			p.queue,
			p.coordinator,
			p.channel,
			p.turnTimeout,
			p.log,
		)
		p.workers[i] = worker

		p.wg.Add(1)
		go func(w *Worker) {
			defer p.wg.Done()
			w.Start(ctx)
		}(worker)
	}

	p.log.Info().Msg("worker pool started")
}

// Stop gracefully shuts down all workers.
func (p *Pool) Stop() {
	p.log.Info().Msg("stopping worker pool")

	for _, worker := range p.workers {
		worker.Stop()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.log.Info().Msg("all workers stopped gracefully")
	case <-time.After(30 * time.Second):
		p.log.Warn().Msg("worker pool shutdown timed out")
	}
}

// QueueDepth returns the current queue depth.
func (p *Pool) QueueDepth() int {
	return p.queue.Depth()
}
