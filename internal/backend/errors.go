package backend

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized means the bearer token is missing or was refused.
	// The caller has to re-authenticate; no further calls should be made
	// for the current view.
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
)

// NetworkError is a request that failed in transit, timed out, or hit a
// server-side failure.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// RejectedError is a 4xx reply carrying the backend's error message.
type RejectedError struct {
	Op      string
	Status  int
	Message string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: rejected with status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: rejected with status %d: %s", e.Op, e.Status, e.Message)
}
