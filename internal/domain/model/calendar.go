// Package model contains domain models passed between layers.
package model

import "time"

// DateLayout is the wire format of a calendar date.
const DateLayout = "2006-01-02"

// DailyRecord holds the contributions made on one calendar day.
// Only the year, month and day of Date are meaningful.
type DailyRecord struct {
	Date  time.Time // calendar day, time of day ignored
	Count int       // non-negative contribution count
}

// Calendar is the contribution history of a single user as returned by a source.
type Calendar struct {
	Username string
	Records  []DailyRecord
}

// Day builds a DailyRecord date at midnight UTC.
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// CivilDate strips the time of day from t, keeping t's own calendar date.
// The result is midnight UTC so that dates from different locations compare
// by year, month and day only.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return Day(y, m, d)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// Total sums the contribution counts of the calendar.
func (c Calendar) Total() int {
	total := 0
	for _, r := range c.Records {
		total += r.Count
	}
	return total
}

// Since returns the records dated on or after from, preserving order.
// A zero from returns all records.
func (c Calendar) Since(from time.Time) []DailyRecord {
	if from.IsZero() {
		return c.Records
	}
	from = CivilDate(from)
	out := make([]DailyRecord, 0, len(c.Records))
	for _, r := range c.Records {
		if !CivilDate(r.Date).Before(from) {
			out = append(out, r)
		}
	}
	return out
}
