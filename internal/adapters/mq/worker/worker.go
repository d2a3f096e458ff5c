// Package worker runs batch streak jobs taken off the queue.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/streakcard/internal/adapters/mq/queue"
	"github.com/okian/streakcard/internal/domain/types"
	"github.com/okian/streakcard/pkg/logger"
	"github.com/okian/streakcard/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()
	poolShutdownTimeout     = 30 * time.Second
)

// Processor summarizes one user's streak.
type Processor interface {
	Process(ctx context.Context, username string) (types.Summary, error)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// InMemoryWorker takes jobs off a queue and replies with their outcome.
type InMemoryWorker struct {
	queue     Queue
	processor Processor
	name      string
	processed *atomic.Int64

	done chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, p Processor, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     q,
		processor: p,
		name:      "worker",
		processed: new(atomic.Int64),
		done:      make(chan struct{}),
		logger:    logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run processes jobs until the queue is closed and drained or ctx is done.
// Stopping through the queue rather than a separate signal keeps a job the
// queue already handed out from being stranded.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			w.processJob(ctx, job)
		}
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} {
	return w.done
}

// processJob runs one job and always replies, so a batch caller never waits
// on a job that was taken off the queue.
func (w *InMemoryWorker) processJob(ctx context.Context, job queue.Job) {
	start := time.Now()
	metrics.AddWorkerBusy(1)
	defer func() {
		metrics.AddWorkerBusy(-1)
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	summary, err := w.processor.Process(ctx, job.Username)
	if err != nil {
		metrics.RecordBatchJob("error")
		metrics.RecordErrorByComponent("worker", "process_error")
		w.logger.Debug(ctx, "job failed",
			logger.String("jobID", job.ID),
			logger.String("username", job.Username),
			logger.Error(err),
		)
	} else {
		metrics.RecordBatchJob("ok")
	}
	w.processed.Add(1)

	if job.Reply == nil {
		return
	}
	out := queue.Outcome{JobID: job.ID, Username: job.Username, Summary: summary, Err: err}
	select {
	case job.Reply <- out:
	case <-ctx.Done():
		w.logger.Warn(ctx, "reply dropped", logger.String("jobID", job.ID))
	}
}

// Pool manages multiple workers.
type Pool struct {
	workers   []*InMemoryWorker
	queue     Queue
	processed *atomic.Int64
	logger    logger.Logger
}

// NewPool creates a new worker pool. A non-positive count uses a multiple of the CPU count.
func NewPool(workerCount int, q Queue, p Processor) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers:   make([]*InMemoryWorker, workerCount),
		queue:     q,
		processed: new(atomic.Int64),
		logger:    logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		w := NewInMemoryWorker(q, p, WithName("worker-"+strconv.Itoa(i)))
		w.processed = pool.processed
		pool.workers[i] = w
	}

	metrics.UpdateWorkerCount(workerCount)

	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Processed returns how many jobs the pool has finished.
func (p *Pool) Processed() int64 {
	return p.processed.Load()
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue and waits for the workers to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
		}
	}
	return nil
}
