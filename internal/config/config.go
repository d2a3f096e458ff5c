// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - Load layers defaults, an optional .env file, an optional YAML file and the environment.
// - External errors must be wrapped with this package's sentinel errors.
package config

import (
	"runtime"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// GitHubToken is the bearer credential for the GraphQL API.
	GitHubToken string `koanf:"github_token"`

	// GitHubEndpoint is the GraphQL endpoint URL.
	GitHubEndpoint string `koanf:"github_endpoint"`

	// GitHubTimeoutMS bounds a single upstream request.
	GitHubTimeoutMS int `koanf:"github_timeout_ms"`

	// SinceYear drops calendar days before Jan 1 of this year. 0 keeps everything.
	SinceYear int `koanf:"since_year"`

	// WorkerCount sets the number of batch workers.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the in-memory batch job queue.
	QueueSize int `koanf:"queue_size"`

	// MaxBatchSize caps the usernames accepted by POST /streaks.
	MaxBatchSize int `koanf:"max_batch_size"`

	// RateLimitRPS and RateLimitBurst configure the per-client token bucket.
	// A zero RPS disables rate limiting.
	RateLimitRPS   float64 `koanf:"rate_limit_rps"`
	RateLimitBurst int     `koanf:"rate_limit_burst"`

	// TrustProxy keys rate limiting by the right-most X-Forwarded-For hop.
	// Set it only when a reverse proxy in front of the service appends that header.
	TrustProxy bool `koanf:"trust_proxy"`

	// CORSOrigins lists allowed origins; "*" allows any.
	CORSOrigins []string `koanf:"cors_origins"`

	// DefaultTheme and DefaultLang apply when a card request omits them.
	DefaultTheme string `koanf:"default_theme"`
	DefaultLang  string `koanf:"default_lang"`

	// CardWidth and CardHeight size the rendered card in pixels.
	CardWidth  int `koanf:"card_width"`
	CardHeight int `koanf:"card_height"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "text",
		Addr:            ":9080",
		GitHubEndpoint:  "https://api.github.com/graphql",
		GitHubTimeoutMS: 10_000,
		SinceYear:       0,
		WorkerCount:     runtime.NumCPU() * 2,
		QueueSize:       1_000,
		MaxBatchSize:    50,
		RateLimitRPS:    5,
		RateLimitBurst:  30,
		CORSOrigins:     []string{"*"},
		DefaultTheme:    "midnight",
		DefaultLang:     "en",
		CardWidth:       600,
		CardHeight:      350,
	}
}
