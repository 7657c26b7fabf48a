package common

import "errors"

var (
	// ErrInvalidRequest flags a request missing required fields.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrUpstreamFetch flags a failed or unparseable downloader invocation.
	ErrUpstreamFetch = errors.New("upstream fetch failed")

	// ErrJobNotReady flags a file retrieval before the job completed.
	ErrJobNotReady = errors.New("job not ready")
)
