package provider

import (
	"errors"
	"fmt"
)

// Error is a provider rejection carrying the HTTP status code so callers can
// separate transient failures from fatal ones.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider returned HTTP %d: %s", e.StatusCode, e.Message)
}

// Transient reports whether the status code signals a failure worth retrying:
// rate limiting or server-side unavailability.
func (e *Error) Transient() bool {
	switch e.StatusCode {
	case 429, 500, 502, 503, 504:
		return true
	}
	return false
}

// IsTransient classifies any error from a provider call. Typed provider
// errors are judged by status code; everything else (transport failures,
// timeouts) is treated as transient, since a malformed request would have
// surfaced as a 4xx.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Transient()
	}
	return true
}
