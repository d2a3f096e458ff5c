package queue

import "errors"

// Sentinel errors for jobs that never reach a worker.
var (
	ErrQueueFull   = errors.New("job queue is full")
	ErrQueueClosed = errors.New("job queue is closed")
)
