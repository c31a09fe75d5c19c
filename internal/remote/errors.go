package remote

import (
	"errors"
	"fmt"
)

// TransportError marks a failure to reach the backend at all, as opposed to
// the backend answering with an application error.
type TransportError struct {
	Op  string
	Err error
}

// Error renders the transport failure.
func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: backend unreachable: %v", e.Op, e.Err)
}

// Unwrap exposes the underlying network error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// APIError carries a backend response with a non-success status.
type APIError struct {
	StatusCode int
	Message    string
}

// Error renders the API failure.
func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("api error (status %d): %s", e.StatusCode, e.Message)
}

// IsUnavailable reports whether an error means the backend could not be
// reached. This is the single connectivity classifier consumed by the
// offline queue; callers never inspect error shapes themselves.
func IsUnavailable(err error) bool {
	var transportErr *TransportError
	return errors.As(err, &transportErr)
}
