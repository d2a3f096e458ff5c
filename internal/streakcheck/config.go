package streakcheck

import (
	"time"

	"github.com/okian/streakcard/internal/domain/streak"
)

// Config holds configuration for a consistency run
type Config struct {
	BaseURL    string        // Base URL of the service
	NumCases   int           // Number of calendars to generate
	Workers    int           // Number of concurrent submitters
	Timeout    time.Duration // HTTP request timeout
	Seed       uint64        // Generator seed; equal seeds give equal calendars
	Now        time.Time     // Reference "now" sent with every case
	OutputFile string        // Optional JSON dump of the generated cases
	LogFile    string        // Log file for run output
	Verbose    bool          // Log every mismatch
}

// Record is the wire shape of one daily record
type Record struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Case is one generated calendar and the "now" it is evaluated at
type Case struct {
	ID      string   `json:"id"`
	Records []Record `json:"records"`
	Now     string   `json:"now"`
}

// Mismatch is a case where the service disagreed with the local engine
type Mismatch struct {
	CaseID string
	Want   streak.Result
	Got    streak.Result
}

// Stats holds run statistics
type Stats struct {
	CasesGenerated int
	CasesSubmitted int
	CasesMatched   int
	CasesFailed    int
	Mismatches     []Mismatch
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
}
