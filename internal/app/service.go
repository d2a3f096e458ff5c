// Package service ties the contribution source, the streak engine and the
// batch worker pool together behind the operations the HTTP API needs.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	jobqueue "github.com/okian/streakcard/internal/adapters/mq/queue"
	workerpool "github.com/okian/streakcard/internal/adapters/mq/worker"
	"github.com/okian/streakcard/internal/domain/model"
	"github.com/okian/streakcard/internal/domain/streak"
	"github.com/okian/streakcard/internal/domain/types"
	"github.com/okian/streakcard/pkg/logger"
	"github.com/okian/streakcard/pkg/metrics"
)

// Default service configuration constants.
const (
	defaultQueueSize    = 1000
	defaultMaxBatchSize = 50
)

// Source supplies a user's contribution calendar.
type Source interface {
	FetchCalendar(ctx context.Context, username string) (model.Calendar, error)
}

// Service implements the API dependencies for the streak service.
type Service struct {
	mu sync.RWMutex

	source     Source
	jobQueue   *jobqueue.InMemoryQueue
	workerPool *workerpool.Pool

	workerCount  int
	queueSize    int
	maxBatchSize int
	sinceYear    int
	clock        func() time.Time

	started bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithSource sets the contribution source.
func WithSource(src Source) Option {
	return func(s *Service) {
		if src != nil {
			s.source = src
		}
	}
}

// WithWorkerCount sets the number of batch workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of pending batch jobs.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithMaxBatchSize caps the number of usernames in one batch request.
func WithMaxBatchSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.maxBatchSize = size
		}
	}
}

// WithSinceYear drops records dated before January 1 of year. Zero keeps everything.
func WithSinceYear(year int) Option {
	return func(s *Service) {
		if year >= 0 {
			s.sinceYear = year
		}
	}
}

// WithClock sets the time source used as "now" for summaries.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:  runtime.NumCPU() * 2,
		queueSize:    defaultQueueSize,
		maxBatchSize: defaultMaxBatchSize,
		clock:        time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start creates the job queue and starts the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.jobQueue = jobqueue.NewInMemoryQueue(jobqueue.WithCapacity(s.queueSize))
	s.workerPool = workerpool.NewPool(s.workerCount, s.jobQueue, s)
	s.workerPool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "streak service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("sinceYear", s.sinceYear),
	)

	return nil
}

// Stop closes the job queue and waits for the workers to drain it.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping streak service...")
	if err := s.workerPool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown incomplete", logger.Error(err))
	}

	s.started = false
	s.logger.Info(ctx, "streak service stopped")
}

// Compute runs the streak engine over records as of now.
func (s *Service) Compute(ctx context.Context, records []model.DailyRecord, now time.Time) streak.Result {
	start := time.Now()
	res := streak.Compute(records, now)
	metrics.RecordStreakComputation(len(records), float64(time.Since(start).Microseconds())/1000)

	if s.logger != nil {
		s.logger.Debug(ctx, "streak computed",
			logger.Int("records", len(records)),
			logger.Int("max", res.MaxStreak),
			logger.Int("ongoing", res.OngoingStreak),
		)
	}
	return res
}

// Summary fetches username's calendar and computes its streak as of the
// service clock.
func (s *Service) Summary(ctx context.Context, username string) (types.Summary, error) {
	if s.source == nil {
		return types.Summary{}, ErrNoSource
	}

	cal, err := s.source.FetchCalendar(ctx, username)
	if err != nil {
		return types.Summary{}, fmt.Errorf("fetch calendar: %w", err)
	}

	records := cal.Records
	if s.sinceYear > 0 {
		records = cal.Since(model.Day(s.sinceYear, time.January, 1))
	}

	res := s.Compute(ctx, records, s.clock())
	return types.NewSummary(cal.Username, res), nil
}

// Process implements worker.Processor.
func (s *Service) Process(ctx context.Context, username string) (types.Summary, error) {
	return s.Summary(ctx, username)
}

// Batch summarizes each username as an independent job on the worker pool.
// Items come back in request order; a per-user failure is reported on its
// item and does not fail the batch.
func (s *Service) Batch(ctx context.Context, usernames []string) ([]types.BatchItem, error) {
	if len(usernames) == 0 {
		return nil, ErrEmptyBatch
	}
	if len(usernames) > s.maxBatchSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, len(usernames), s.maxBatchSize)
	}

	s.mu.RLock()
	started, q := s.started, s.jobQueue
	s.mu.RUnlock()
	if !started {
		return nil, ErrNotStarted
	}
	// Len includes jobs already taken by idle forwarders, so the headroom may
	// be understated but never overstated.
	if q.Capacity()-q.Len(ctx) < len(usernames) {
		metrics.RecordBatchJob("rejected")
		return nil, ErrBackpressure
	}

	// Buffered so workers never block on a caller that gave up.
	reply := make(chan jobqueue.Outcome, len(usernames))
	index := make(map[string]int, len(usernames))
	for i, name := range usernames {
		job := jobqueue.NewJob(name, reply)
		if !q.Enqueue(ctx, job) {
			metrics.RecordBatchJob("rejected")
			if q.IsClosed() {
				return nil, fmt.Errorf("%w: %w", ErrNotStarted, jobqueue.ErrQueueClosed)
			}
			return nil, fmt.Errorf("%w: %w", ErrBackpressure, jobqueue.ErrQueueFull)
		}
		index[job.ID] = i
	}

	items := make([]types.BatchItem, len(usernames))
	for received := 0; received < len(usernames); received++ {
		select {
		case out := <-reply:
			i := index[out.JobID]
			items[i].Username = usernames[i]
			if out.Err != nil {
				items[i].Error = out.Err.Error()
				continue
			}
			summary := out.Summary
			items[i].Summary = &summary
		case <-ctx.Done():
			return nil, fmt.Errorf("batch interrupted: %w", ctx.Err())
		}
	}
	return items, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":      s.started,
		"workerCount":  s.workerCount,
		"queueSize":    s.queueSize,
		"maxBatchSize": s.maxBatchSize,
		"sinceYear":    s.sinceYear,
	}

	if s.started {
		stats["queueLength"] = s.jobQueue.Len(context.Background())
		stats["processedJobs"] = s.workerPool.Processed()
	}

	return stats
}
