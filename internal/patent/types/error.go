package types

import (
	"errors"
	"fmt"
)

var (
	// Configuration errors
	ErrMissingAPIKey  = errors.New("API key is empty or not set")
	ErrInvalidBaseURL = errors.New("invalid ODP base URL")

	// Response errors
	ErrInvalidResponse = errors.New("invalid response from ODP")
)

// UpstreamError reports a failed exchange with the ODP API. StatusCode is
// zero when no HTTP response was received.
type UpstreamError struct {
	StatusCode int
	Body       string
	Retries    int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("odp request failed: %v", e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("odp HTTP %d: %s (%v)", e.StatusCode, e.Body, e.Err)
	}
	return fmt.Sprintf("odp HTTP %d: %s", e.StatusCode, e.Body)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// IsTransport reports whether the request never got an HTTP response
func (e *UpstreamError) IsTransport() bool {
	return e.StatusCode == 0
}
