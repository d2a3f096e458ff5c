package streakcheck

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/okian/streakcard/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to the console and, when logFile is set,
// to that file as well.
func SetupLogging(logFile string) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if logFile == "" {
		return nil
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	logger.SetOutput(io.MultiWriter(os.Stdout, file))
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the consistency checker.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`Streak Consistency Checker
==========================

Generates random contribution calendars, submits them to POST /streak/compute
and compares every answer with the streak engine run locally.

Usage:
  go run ./cmd/streak-check [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:8000")
  -cases int
        Number of calendars to generate (default 1000)
  -workers int
        Number of concurrent submitters (default CPU cores * 2)
  -seed uint
        Generator seed (default: current time)
  -now string
        Reference time, RFC3339 (default: current time)
  -timeout duration
        HTTP request timeout (default 30s)
  -output string
        Write the generated calendars to this JSON file
  -log string
        Also write logs to this file
  -verbose
        Log every mismatch and failed request
  -help
        Show this help message

Examples:
  go run ./cmd/streak-check -cases 5000 -workers 16
  go run ./cmd/streak-check -seed 42 -now 2024-07-01T12:00:00Z -output cases.json
`)
}
