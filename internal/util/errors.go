package util

import "errors"

var (
	ErrNotFound    = errors.New("not found")
	ErrUpstream    = errors.New("upstream unavailable")
	ErrParseFailed = errors.New("failed to parse response")
	ErrMissingKey  = errors.New("api key not configured")
)
