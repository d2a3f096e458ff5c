package streakcheck

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/streakcard/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	filePermission      = 0600
)

// Run executes a complete consistency run: it checks the service, generates
// calendars, submits them and compares every answer with the local engine.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}
	if config.Now.IsZero() {
		config.Now = time.Now()
	}

	logger.Get().Info(ctx, "starting streak consistency run",
		logger.String("baseURL", config.BaseURL),
		logger.Int("cases", config.NumCases),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.Any("seed", config.Seed),
		logger.String("now", config.Now.Format(time.RFC3339)),
		logger.Any("verbose", config.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return err
	}

	// Step 2: Generate calendars
	cases := generateCases(ctx, config, stats)

	// Step 3: Submit and verify concurrently
	verifyCases(ctx, config, cases, stats)

	// Step 4: Save calendars to file
	if config.OutputFile != "" {
		if err := saveCasesToFile(ctx, config.OutputFile, cases); err != nil {
			logger.Get().Warn(ctx, "failed to save cases to file", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(stats)

	if err := checkResults(stats); err != nil {
		return err
	}
	logger.Get().Info(ctx, "run completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	resp, err := client.Get(ctx, config.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// saveCasesToFile writes the generated calendars as a JSON array.
func saveCasesToFile(ctx context.Context, filename string, cases []Case) error {
	if len(cases) == 0 {
		return fmt.Errorf("no cases to save")
	}

	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(cases, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cases: %w", err)
	}
	if err := os.WriteFile(filename, append(data, '\n'), filePermission); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	logger.Get().Info(ctx, "cases saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(stats *Stats) {
	var matchRate, casesPerSecond float64

	if stats.CasesSubmitted > 0 {
		matchRate = float64(stats.CasesMatched) / float64(stats.CasesSubmitted) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		casesPerSecond = float64(stats.CasesSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("casesGenerated", stats.CasesGenerated),
		logger.Int("casesSubmitted", stats.CasesSubmitted),
		logger.Int("casesMatched", stats.CasesMatched),
		logger.Int("casesMismatched", len(stats.Mismatches)),
		logger.Int("casesFailed", stats.CasesFailed),
		logger.Duration("duration", stats.Duration),
		logger.Float64("matchRate", matchRate),
		logger.Float64("casesPerSecond", casesPerSecond))
}
