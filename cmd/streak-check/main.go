package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/streakcard/internal/streakcheck"
)

// Default configuration constants.
const (
	defaultNumCases   = 1000
	defaultWorkers    = 2 // multiplier for runtime.NumCPU()
	defaultTimeout    = 30 * time.Second
	defaultRunTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:8000", "Base URL of the service")
		numCases   = flag.Int("cases", defaultNumCases, "Number of calendars to generate")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent submitters")
		seed       = flag.Uint64("seed", uint64(time.Now().UnixNano()), "Generator seed")
		now        = flag.String("now", "", "Reference time, RFC3339 (default: current time)")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		outputFile = flag.String("output", "", "Write the generated calendars to this JSON file")
		logFile    = flag.String("log", "", "Also write logs to this file")
		verbose    = flag.Bool("verbose", false, "Log every mismatch and failed request")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		streakcheck.ShowHelp()
		return
	}

	if err := streakcheck.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	var ref time.Time
	if *now != "" {
		t, err := time.Parse(time.RFC3339, *now)
		if err != nil {
			os.Stderr.WriteString("Invalid -now: " + err.Error() + "\n")
			os.Exit(2)
		}
		ref = t
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	config := &streakcheck.Config{
		BaseURL:    *baseURL,
		NumCases:   *numCases,
		Workers:    *workers,
		Timeout:    *timeout,
		Seed:       *seed,
		Now:        ref,
		OutputFile: *outputFile,
		LogFile:    *logFile,
		Verbose:    *verbose,
	}

	if err := streakcheck.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Check failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
