// Package github fetches contribution calendars from the GitHub GraphQL API.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/okian/streakcard/internal/domain/model"
	"github.com/okian/streakcard/pkg/logger"
	"github.com/okian/streakcard/pkg/metrics"
)

// Default client configuration constants.
const (
	DefaultEndpoint = "https://api.github.com/graphql"
	defaultTimeout  = 10 * time.Second
	maxBodyBytes    = 4 << 20
)

const calendarQuery = `query($login: String!) {
  user(login: $login) {
    contributionsCollection {
      contributionCalendar {
        weeks {
          contributionDays {
            date
            contributionCount
          }
        }
      }
    }
  }
}`

// Config is the immutable source configuration. Build it once at startup and
// hand it to NewClient.
type Config struct {
	Token    string
	Endpoint string
	Timeout  time.Duration
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets a custom logger for the client.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// Client fetches contribution calendars.
type Client struct {
	cfg    Config
	http   *http.Client
	logger logger.Logger
}

// NewClient creates a client for cfg. Empty endpoint and timeout fall back to defaults.
func NewClient(cfg Config, opts ...Option) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	c := &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.Named("github")
	}
	return c
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// graphQLNotFound is the error type GitHub reports for an unknown login.
const graphQLNotFound = "NOT_FOUND"

type graphQLResponse struct {
	Data struct {
		User *struct {
			ContributionsCollection struct {
				ContributionCalendar struct {
					Weeks []struct {
						ContributionDays []struct {
							Date              string `json:"date"`
							ContributionCount int    `json:"contributionCount"`
						} `json:"contributionDays"`
					} `json:"weeks"`
				} `json:"contributionCalendar"`
			} `json:"contributionsCollection"`
		} `json:"user"`
	} `json:"data"`
	Errors []struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"errors"`
}

// FetchCalendar returns the user's daily contribution records in the order
// GitHub reports them.
func (c *Client) FetchCalendar(ctx context.Context, username string) (model.Calendar, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return model.Calendar{}, ErrInvalidUsername
	}
	if c.cfg.Token == "" {
		return model.Calendar{}, ErrMissingToken
	}

	start := time.Now()
	cal, err := c.fetch(ctx, username)
	latency := float64(time.Since(start).Milliseconds())

	switch {
	case err == nil:
		metrics.RecordUpstreamFetch("ok", latency)
	case errors.Is(err, ErrUserNotFound):
		metrics.RecordUpstreamFetch("not_found", latency)
	default:
		metrics.RecordUpstreamFetch("error", latency)
		metrics.RecordErrorByComponent("github", "upstream")
		c.logger.Warn(ctx, "calendar fetch failed", logger.String("username", username), logger.Error(err))
	}
	return cal, err
}

func (c *Client) fetch(ctx context.Context, username string) (model.Calendar, error) {
	body, err := json.Marshal(graphQLRequest{
		Query:     calendarQuery,
		Variables: map[string]any{"login": username},
	})
	if err != nil {
		return model.Calendar{}, fmt.Errorf("encode query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return model.Calendar{}, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return model.Calendar{}, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return model.Calendar{}, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var payload graphQLResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&payload); err != nil {
		return model.Calendar{}, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	for _, e := range payload.Errors {
		if e.Type != graphQLNotFound {
			return model.Calendar{}, fmt.Errorf("%w: graphql %s: %s", ErrUpstream, e.Type, e.Message)
		}
	}
	if len(payload.Errors) > 0 || payload.Data.User == nil {
		return model.Calendar{}, fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}

	cal := model.Calendar{Username: username}
	for _, week := range payload.Data.User.ContributionsCollection.ContributionCalendar.Weeks {
		for _, day := range week.ContributionDays {
			date, err := model.ParseDate(day.Date)
			if err != nil {
				return model.Calendar{}, fmt.Errorf("%w: date %q: %w", ErrMalformedResponse, day.Date, err)
			}
			if day.ContributionCount < 0 {
				return model.Calendar{}, fmt.Errorf("%w: negative count on %s", ErrMalformedResponse, day.Date)
			}
			cal.Records = append(cal.Records, model.DailyRecord{Date: date, Count: day.ContributionCount})
		}
	}
	return cal, nil
}

