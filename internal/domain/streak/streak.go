// Package streak computes contribution streaks from a daily calendar.
//
// The computation is a pure function of its inputs: the caller supplies the
// records and the current instant, and gets back a fresh Result. Nothing is
// cached between calls, so concurrent use with disjoint inputs is safe.
package streak

import (
	"sort"
	"time"

	"github.com/okian/streakcard/internal/domain/model"
)

// Result is the outcome of a streak computation.
type Result struct {
	MaxStreak          int `json:"max_streak"`
	OngoingStreak      int `json:"ongoing_streak"`
	TotalContributions int `json:"total_contributions"`
}

// Compute walks the records in ascending date order and returns the longest
// run, the run still active at now, and the sum of all counts.
//
// A run is a sequence of consecutive records with a positive count. Missing
// dates do not break a run; only an explicit zero-count record does. A zero
// for the current day breaks the ongoing run only once the day is over, so a
// user who has not contributed yet today keeps their streak until midnight.
//
// Records with the same date are all processed (and all counted), in the
// order they were given. The input slice is not modified.
func Compute(records []model.DailyRecord, now time.Time) Result {
	sorted := make([]model.DailyRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return model.CivilDate(sorted[i].Date).Before(model.CivilDate(sorted[j].Date))
	})

	today := model.CivilDate(now)
	endOfToday := EndOfDay(now)

	var res Result
	previous := 0
	for _, r := range sorted {
		res.TotalContributions += r.Count

		if r.Count > 0 {
			if previous == 0 {
				res.OngoingStreak = 1
			} else {
				res.OngoingStreak++
			}
			if res.OngoingStreak > res.MaxStreak {
				res.MaxStreak = res.OngoingStreak
			}
		} else {
			day := model.CivilDate(r.Date)
			if day.Before(today) || (day.Equal(today) && !now.Before(endOfToday)) {
				res.OngoingStreak = 0
			}
		}

		previous = r.Count
	}

	return res
}

// EndOfDay returns the last representable instant of t's calendar day in t's location.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}
