// Package queue carries batch streak jobs from the service to the workers.
package queue

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/okian/streakcard/internal/domain/types"
	"github.com/okian/streakcard/pkg/metrics"
)

const defaultQueueCapacity = 1000

// Job asks a worker to summarize one user's streak. The worker sends exactly
// one Outcome on Reply.
type Job struct {
	ID       string
	Username string
	Reply    chan<- Outcome
}

// NewJob creates a job with a fresh ID.
func NewJob(username string, reply chan<- Outcome) Job {
	return Job{ID: uuid.NewString(), Username: username, Reply: reply}
}

// Outcome is the result of one Job.
type Outcome struct {
	JobID    string
	Username string
	Summary  types.Summary
	Err      error
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a job. It returns false if the queue is full or closed.
	Enqueue(ctx context.Context, j Job) bool

	// Dequeue returns a channel of jobs that is closed when the queue closes.
	Dequeue(ctx context.Context) <-chan Job

	// Len returns the number of jobs accepted but not yet handed to a consumer.
	Len(ctx context.Context) int

	// Close stops accepting jobs and closes dequeue channels once drained.
	Close() error

	// IsClosed reports whether Close has been called.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
//
// Dequeue forwards jobs through a goroutine that may hold one job taken off
// the buffer before its consumer is ready. pending counts such jobs too, so
// Len reports every job not yet delivered and may briefly exceed Capacity.
type InMemoryQueue struct {
	jobs     chan Job
	capacity int
	pending  atomic.Int64
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a bounded in-memory queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.jobs = make(chan Job, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0.0)

	return q
}

// Enqueue adds a job without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, j Job) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return false
	}
	if ctx.Err() != nil {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return false
	}

	// Counted before the send so a fast consumer cannot deliver it first.
	q.pending.Add(1)
	select {
	case q.jobs <- j:
		metrics.RecordQueueEnqueue()
		q.updateGauges()
		return true
	default:
		q.pending.Add(-1)
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return false
	}
}

// Dequeue returns a channel that receives jobs as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Job {
	out := make(chan Job)
	go func() {
		defer close(out)
		for j := range q.jobs {
			select {
			case out <- j:
				q.pending.Add(-1)
				metrics.RecordQueueDequeue()
				q.updateGauges()
			case <-ctx.Done():
				q.pending.Add(-1)
				metrics.RecordErrorByComponent("queue", "job_dropped")
				return
			}
		}
	}()
	return out
}

// Len returns the number of jobs not yet delivered to a consumer.
func (q *InMemoryQueue) Len(_ context.Context) int {
	q.updateGauges()
	return int(q.pending.Load())
}

// Capacity returns the maximum number of pending jobs.
func (q *InMemoryQueue) Capacity() int {
	return q.capacity
}

// Close stops the queue. Pending jobs are still delivered.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.jobs)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

func (q *InMemoryQueue) updateGauges() {
	size := int(q.pending.Load())
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
}
