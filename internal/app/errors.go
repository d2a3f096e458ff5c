package service

import "errors"

// Service errors.
var (
	ErrNotStarted    = errors.New("service not started")
	ErrNoSource      = errors.New("no contribution source configured")
	ErrEmptyBatch    = errors.New("batch contains no usernames")
	ErrBatchTooLarge = errors.New("batch exceeds the maximum size")
	ErrBackpressure  = errors.New("too many pending batch jobs")
)
