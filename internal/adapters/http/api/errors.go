package api

import (
	"errors"
	"net/http"

	"github.com/okian/streakcard/internal/adapters/github"
	"github.com/okian/streakcard/internal/adapters/render"
	service "github.com/okian/streakcard/internal/app"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest  = errors.New("bad request")
	ErrRateLimited = errors.New("rate limit exceeded")
)

// classify maps an error to an HTTP status and a stable error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, github.ErrInvalidUsername),
		errors.Is(err, render.ErrUnknownFormat),
		errors.Is(err, service.ErrEmptyBatch),
		errors.Is(err, service.ErrBatchTooLarge):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, github.ErrUserNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, "rate_limited"
	case errors.Is(err, service.ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, github.ErrMissingToken),
		errors.Is(err, github.ErrUpstream),
		errors.Is(err, github.ErrMalformedResponse):
		return http.StatusBadGateway, "upstream_error"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
