package streakcheck

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/okian/streakcard/internal/domain/streak"
	"github.com/okian/streakcard/pkg/logger"
)

// verifyCases submits every case concurrently and compares each answer with
// the local engine.
func verifyCases(ctx context.Context, config *Config, cases []Case, stats *Stats) {
	log := logger.Get().Named("streakcheck")
	log.Info(ctx, "submitting calendars", logger.Int("cases", len(cases)), logger.Int("workers", config.Workers))

	client := newHTTPClient(config.Timeout)
	var (
		submitted, matched, failed int64
		mu                         sync.Mutex
		mismatches                 []Mismatch
	)

	caseChan := make(chan Case, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup
	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range caseChan {
				atomic.AddInt64(&submitted, 1)

				records, now, err := fromWire(c)
				if err != nil {
					atomic.AddInt64(&failed, 1)
					log.Error(ctx, "invalid generated case", logger.String("case", c.ID), logger.Error(err))
					continue
				}
				want := streak.Compute(records, now)

				got, err := computeRemote(ctx, client, config.BaseURL, c)
				if err != nil {
					atomic.AddInt64(&failed, 1)
					if config.Verbose {
						log.Warn(ctx, "compute request failed", logger.String("case", c.ID), logger.Error(err))
					}
					continue
				}

				if got != want {
					mu.Lock()
					mismatches = append(mismatches, Mismatch{CaseID: c.ID, Want: want, Got: got})
					mu.Unlock()
					if config.Verbose {
						log.Warn(ctx, "result mismatch",
							logger.String("case", c.ID),
							logger.Any("want", want),
							logger.Any("got", got))
					}
					continue
				}
				atomic.AddInt64(&matched, 1)
			}
		}()
	}

	go func() {
		defer close(caseChan)
		for _, c := range cases {
			select {
			case <-ctx.Done():
				return
			case caseChan <- c:
			}
		}
	}()
	wg.Wait()

	stats.CasesSubmitted = int(atomic.LoadInt64(&submitted))
	stats.CasesMatched = int(atomic.LoadInt64(&matched))
	stats.CasesFailed = int(atomic.LoadInt64(&failed))
	stats.Mismatches = mismatches
}

// checkResults turns the collected stats into the run's verdict.
func checkResults(stats *Stats) error {
	if len(stats.Mismatches) > 0 {
		first := stats.Mismatches[0]
		return fmt.Errorf("%w: %d cases, first %s want %+v got %+v",
			ErrMismatch, len(stats.Mismatches), first.CaseID, first.Want, first.Got)
	}
	if stats.CasesFailed > 0 {
		return fmt.Errorf("%w: %d of %d cases", ErrRequest, stats.CasesFailed, stats.CasesSubmitted)
	}
	return nil
}
