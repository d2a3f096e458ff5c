// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/handlers"

	"github.com/okian/streakcard/internal/adapters/render"
	"github.com/okian/streakcard/internal/domain/model"
	"github.com/okian/streakcard/internal/domain/streak"
	"github.com/okian/streakcard/internal/domain/types"
	"github.com/okian/streakcard/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Summary fetches a user's calendar and computes its streak.
	Summary(ctx context.Context, username string) (types.Summary, error)

	// Compute runs the streak engine over caller-supplied records.
	Compute(ctx context.Context, records []model.DailyRecord, now time.Time) streak.Result

	// Batch summarizes several users; items follow request order.
	Batch(ctx context.Context, usernames []string) ([]types.BatchItem, error)
}

// CardRenderer draws streak cards.
type CardRenderer interface {
	Render(w io.Writer, card render.Card, format render.Format) (string, error)
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithRateLimit sets the per-client token bucket. A zero rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Server) {
		s.rateRPS, s.rateBurst = rps, burst
	}
}

// WithTrustedProxy keys rate limiting by the proxy-appended X-Forwarded-For
// hop instead of the connection address.
func WithTrustedProxy(trust bool) Option {
	return func(s *Server) {
		s.trustProxy = trust
	}
}

// WithCORSOrigins sets the allowed CORS origins.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.corsOrigins = origins
		}
	}
}

// WithClock sets the time source used when a compute request omits "now".
func WithClock(clock func() time.Time) Option {
	return func(s *Server) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger sets a custom logger for the server.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// Server wires HTTP routes for the streak API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	streakHandler  *StreakHandler
	computeHandler *ComputeHandler
	batchHandler   *BatchHandler

	rateRPS     float64
	rateBurst   int
	trustProxy  bool
	corsOrigins []string
	clock       func() time.Time
	logger      logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, renderer CardRenderer, opts ...Option) *Server {
	s := &Server{
		rateRPS:     5,
		rateBurst:   30,
		corsOrigins: []string{"*"},
		clock:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Named("api")
	}

	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.streakHandler = NewStreakHandler(deps, renderer, s.clock, s.logger)
	s.computeHandler = NewComputeHandler(deps, s.clock)
	s.batchHandler = NewBatchHandler(deps, s.logger)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", MetricsMiddleware(s.streakHandler.HandleRoot, "root"))
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("GET /themes", MetricsMiddleware(s.streakHandler.HandleThemes, "themes"))
	mux.HandleFunc("GET /languages", MetricsMiddleware(s.streakHandler.HandleLanguages, "languages"))
	mux.HandleFunc("GET /streak/{username}", MetricsMiddleware(s.streakHandler.HandleGetStreak, "streak"))
	mux.HandleFunc("GET /streak/{username}/image", MetricsMiddleware(s.streakHandler.HandleGetImage, "streak_image"))
	mux.HandleFunc("POST /streak/compute", MetricsMiddleware(s.computeHandler.HandleCompute, "streak_compute"))
	mux.HandleFunc("POST /streaks", MetricsMiddleware(s.batchHandler.HandleBatch, "streaks"))
}

// Handler wraps next with CORS, request IDs and per-client rate limiting.
// The limiter's idle-client sweep stops when ctx is done.
func (s *Server) Handler(ctx context.Context, next http.Handler) http.Handler {
	h := next
	if s.rateRPS > 0 {
		limiter := NewRateLimiter(s.rateRPS, s.rateBurst, TrustForwardedFor(s.trustProxy))
		go limiter.Cleanup(ctx)
		h = limiter.Middleware(h)
	}
	h = RequestIDMiddleware(h)
	cors := handlers.CORS(
		handlers.AllowedOrigins(s.corsOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", requestIDHeader}),
		handlers.ExposedHeaders([]string{requestIDHeader}),
	)
	return cors(h)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// serverMessages replaces error text on 5xx responses; the detail of a
// server-side or upstream failure goes to the log only.
var serverMessages = map[string]string{
	"upstream_error": "error fetching data from github",
	"unavailable":    "service is not accepting requests",
	"internal_error": "internal server error",
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	switch {
	case status >= statusInternalError:
		if m, ok := serverMessages[code]; ok {
			msg = m
		}
	case err != nil:
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// logFailure logs err at error level when it maps to a 5xx response and at
// debug level otherwise.
func logFailure(ctx context.Context, l logger.Logger, msg string, err error, fields ...logger.Field) {
	status, _ := classify(err)
	fields = append(fields,
		logger.String("requestID", RequestID(ctx)),
		logger.Int("status", status),
		logger.Error(err),
	)
	if status >= statusInternalError {
		l.Error(ctx, msg, fields...)
		return
	}
	l.Debug(ctx, msg, fields...)
}

// writeFailure classifies err and writes the matching error response.
func writeFailure(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeError(w, status, code, err)
}

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrBadRequest, fmt.Sprintf(format, args...))
}
