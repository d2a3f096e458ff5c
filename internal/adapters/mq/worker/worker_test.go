package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/streakcard/internal/adapters/mq/queue"
	worker "github.com/okian/streakcard/internal/adapters/mq/worker"
	"github.com/okian/streakcard/internal/domain/types"
	logging "github.com/okian/streakcard/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type mockQueue struct {
	jobs chan queue.Job
	once sync.Once
}

func newMockQueue() *mockQueue {
	return &mockQueue{jobs: make(chan queue.Job, 10)}
}

func (mq *mockQueue) Dequeue(ctx context.Context) <-chan queue.Job {
	return mq.jobs
}

func (mq *mockQueue) Close() error {
	mq.once.Do(func() { close(mq.jobs) })
	return nil
}

type mockProcessor struct {
	mu     sync.Mutex
	errors map[string]error
	calls  []string
}

func newMockProcessor() *mockProcessor {
	return &mockProcessor{errors: make(map[string]error)}
}

func (mp *mockProcessor) Process(ctx context.Context, username string) (types.Summary, error) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.calls = append(mp.calls, username)
	if err, ok := mp.errors[username]; ok {
		return types.Summary{}, err
	}
	return types.Summary{Username: username, MaxStreak: len(username), OngoingStreak: 1, TotalContributions: 10}, nil
}

func (mp *mockProcessor) setError(username string, err error) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.errors[username] = err
}

func receive(t *testing.T, ch <-chan queue.Outcome) queue.Outcome {
	t.Helper()
	select {
	case out := <-ch:
		return out
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for outcome")
		return queue.Outcome{}
	}
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a running InMemoryWorker", t, func() {
		_ = logging.Init()

		q := newMockQueue()
		proc := newMockProcessor()
		w := worker.NewInMemoryWorker(q, proc, worker.WithName("test-worker"))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When a job is processed successfully", func() {
			reply := make(chan queue.Outcome, 1)
			job := queue.NewJob("octocat", reply)
			q.jobs <- job

			out := receive(t, reply)

			convey.Convey("Then the summary is sent on the reply channel", func() {
				convey.So(out.JobID, convey.ShouldEqual, job.ID)
				convey.So(out.Username, convey.ShouldEqual, "octocat")
				convey.So(out.Err, convey.ShouldBeNil)
				convey.So(out.Summary.MaxStreak, convey.ShouldEqual, 7)
			})
		})

		convey.Convey("When processing fails", func() {
			boom := errors.New("upstream down")
			proc.setError("ghost", boom)
			reply := make(chan queue.Outcome, 1)
			q.jobs <- queue.NewJob("ghost", reply)

			out := receive(t, reply)

			convey.Convey("Then the error is sent on the reply channel", func() {
				convey.So(errors.Is(out.Err, boom), convey.ShouldBeTrue)
				convey.So(out.Summary, convey.ShouldResemble, types.Summary{})
			})
		})

		convey.Convey("When the queue is closed with a job still pending", func() {
			reply := make(chan queue.Outcome, 1)
			q.jobs <- queue.NewJob("last", reply)
			_ = q.Close()

			convey.Convey("Then the job is answered before the worker stops", func() {
				out := receive(t, reply)
				convey.So(out.Username, convey.ShouldEqual, "last")
				select {
				case <-w.Done():
				case <-time.After(2 * time.Second):
					t.Fatal("worker did not stop after the queue closed")
				}
			})
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool of three workers over a real queue", t, func() {
		_ = logging.Init()

		q := queue.NewInMemoryQueue(queue.WithCapacity(50))
		proc := newMockProcessor()
		pool := worker.NewPool(3, q, proc)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		pool.Start(ctx)

		convey.So(pool.Size(), convey.ShouldEqual, 3)

		convey.Convey("When twenty jobs are enqueued", func() {
			reply := make(chan queue.Outcome, 20)
			for i := 0; i < 20; i++ {
				convey.So(q.Enqueue(ctx, queue.NewJob("user", reply)), convey.ShouldBeTrue)
			}
			for i := 0; i < 20; i++ {
				out := receive(t, reply)
				convey.So(out.Err, convey.ShouldBeNil)
			}

			convey.Convey("Then every job is processed once", func() {
				convey.So(pool.Processed(), convey.ShouldEqual, 20)
			})

			convey.Convey("And Shutdown stops the workers", func() {
				sctx, scancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer scancel()
				convey.So(pool.Shutdown(sctx), convey.ShouldBeNil)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
			})
		})
	})
}

func TestPoolShutdownDrainsPendingJobs(t *testing.T) {
	convey.Convey("Given a pool with more queued jobs than workers", t, func() {
		_ = logging.Init()

		q := queue.NewInMemoryQueue(queue.WithCapacity(50))
		proc := newMockProcessor()
		pool := worker.NewPool(2, q, proc)

		reply := make(chan queue.Outcome, 30)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		for i := 0; i < 30; i++ {
			convey.So(q.Enqueue(ctx, queue.NewJob("user", reply)), convey.ShouldBeTrue)
		}
		pool.Start(ctx)

		convey.Convey("When the pool is shut down straight away", func() {
			sctx, scancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer scancel()
			convey.So(pool.Shutdown(sctx), convey.ShouldBeNil)

			convey.Convey("Then every queued job still gets a reply", func() {
				convey.So(len(reply), convey.ShouldEqual, 30)
				convey.So(pool.Processed(), convey.ShouldEqual, 30)
				convey.So(q.Len(ctx), convey.ShouldEqual, 0)
			})
		})
	})
}
