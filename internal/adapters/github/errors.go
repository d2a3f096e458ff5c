package github

import "errors"

// Sentinel kinds for contribution source errors.
var (
	ErrMissingToken      = errors.New("github token is missing")
	ErrInvalidUsername   = errors.New("invalid username")
	ErrUserNotFound      = errors.New("github user not found")
	ErrUpstream          = errors.New("error fetching data from github")
	ErrMalformedResponse = errors.New("malformed github response")
)
