package llm

import (
	"errors"
	"fmt"
)

var (
	// ErrBackendUnavailable indicates the backend could not be reached or
	// refused the request (network, auth or server error). Retryable by the caller.
	ErrBackendUnavailable = errors.New("llm backend unavailable")

	// ErrBackendRateLimited indicates the backend throttled the request.
	// The caller decides on backoff.
	ErrBackendRateLimited = errors.New("llm backend rate limited")

	// ErrTimeout indicates the request exceeded the configured timeout.
	// It is a BackendUnavailable condition.
	ErrTimeout = fmt.Errorf("%w: request timed out", ErrBackendUnavailable)

	// ErrInvalidOutput indicates the LLM response could not be parsed
	// into the expected structured format.
	ErrInvalidOutput = errors.New("invalid llm output format")
)

// IsRetryable reports whether err is a transient backend condition.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrBackendUnavailable) || errors.Is(err, ErrBackendRateLimited)
}
