package streakcheck

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/okian/streakcard/internal/domain/model"
	"github.com/okian/streakcard/pkg/logger"
)

// Calendar shape probabilities, in percent.
const (
	gapPercent        = 10
	zeroPercent       = 20
	duplicatePercent  = 3
	todayZeroPercent  = 30
	futureZeroPercent = 10
	maxDays           = 400
	maxDailyCount     = 20
	maxStartOffset    = 730
)

// generateCases builds NumCases shuffled calendars from the configured seed.
// Calendars contain gaps, zero days, duplicate dates, a zero dated today and
// zeros dated in the future, in the proportions above.
func generateCases(ctx context.Context, config *Config, stats *Stats) []Case {
	rng := rand.New(rand.NewPCG(config.Seed, config.Seed^0x9e3779b97f4a7c15))
	now := config.Now.UTC().Truncate(time.Second)
	today := model.CivilDate(now)

	cases := make([]Case, config.NumCases)
	for i := range cases {
		cases[i] = Case{
			ID:      uuid.NewString(),
			Records: toWire(generateCalendar(rng, today)),
			Now:     now.Format(time.RFC3339),
		}
	}

	stats.CasesGenerated = len(cases)
	logger.Get().Info(ctx, "generated calendars", logger.Int("count", len(cases)), logger.Any("seed", config.Seed))
	return cases
}

func generateCalendar(rng *rand.Rand, today time.Time) []model.DailyRecord {
	days := 1 + rng.IntN(maxDays)
	start := today.AddDate(0, 0, -rng.IntN(maxStartOffset)-days)

	records := make([]model.DailyRecord, 0, days+2)
	for d := 0; d < days; d++ {
		if rng.IntN(100) < gapPercent {
			continue
		}
		date := start.AddDate(0, 0, d)
		count := 0
		if rng.IntN(100) >= zeroPercent {
			count = 1 + rng.IntN(maxDailyCount)
		}
		records = append(records, model.DailyRecord{Date: date, Count: count})
		if rng.IntN(100) < duplicatePercent {
			records = append(records, model.DailyRecord{Date: date, Count: rng.IntN(maxDailyCount)})
		}
	}
	if rng.IntN(100) < todayZeroPercent {
		records = append(records, model.DailyRecord{Date: today})
	}
	if rng.IntN(100) < futureZeroPercent {
		records = append(records, model.DailyRecord{Date: today.AddDate(0, 0, 1+rng.IntN(5))})
	}

	rng.Shuffle(len(records), func(i, j int) { records[i], records[j] = records[j], records[i] })
	return records
}

func toWire(records []model.DailyRecord) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = Record{Date: r.Date.Format(model.DateLayout), Count: r.Count}
	}
	return out
}

// fromWire converts a case back into engine input.
func fromWire(c Case) ([]model.DailyRecord, time.Time, error) {
	now, err := time.Parse(time.RFC3339, c.Now)
	if err != nil {
		return nil, time.Time{}, err
	}
	records := make([]model.DailyRecord, len(c.Records))
	for i, r := range c.Records {
		date, err := model.ParseDate(r.Date)
		if err != nil {
			return nil, time.Time{}, err
		}
		records[i] = model.DailyRecord{Date: date, Count: r.Count}
	}
	return records, now, nil
}
