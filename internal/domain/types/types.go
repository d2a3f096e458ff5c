// Package types contains common types used across the application
package types

import "github.com/okian/streakcard/internal/domain/streak"

// Summary is the read shape of a user's streak
type Summary struct {
	Username           string `json:"username"`
	MaxStreak          int    `json:"max_streak"`
	OngoingStreak      int    `json:"ongoing_streak"`
	TotalContributions int    `json:"total_contributions"`
}

// NewSummary attaches a username to an engine result
func NewSummary(username string, res streak.Result) Summary {
	return Summary{
		Username:           username,
		MaxStreak:          res.MaxStreak,
		OngoingStreak:      res.OngoingStreak,
		TotalContributions: res.TotalContributions,
	}
}

// Result returns the engine view of the summary
func (s Summary) Result() streak.Result {
	return streak.Result{
		MaxStreak:          s.MaxStreak,
		OngoingStreak:      s.OngoingStreak,
		TotalContributions: s.TotalContributions,
	}
}

// BatchItem is one row of a batch streak response
type BatchItem struct {
	Username string   `json:"username"`
	Summary  *Summary `json:"summary,omitempty"`
	Error    string   `json:"error,omitempty"`
}
