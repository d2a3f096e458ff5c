package streakcheck

import "errors"

// Run errors.
var (
	ErrUnhealthy = errors.New("service health check failed")
	ErrRequest   = errors.New("compute request failed")
	ErrMismatch  = errors.New("service results differ from the local engine")
)
