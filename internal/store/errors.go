package store

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated is returned without any network call when no token is available.
	ErrUnauthenticated = errors.New("not authenticated: set GITHUB_TOKEN or run 'ghinbox auth login'")

	// ErrSyncInProgress is returned when a sync pass is already running.
	ErrSyncInProgress = errors.New("sync already in progress")

	// ErrInvalidTransition is returned when a thread action does not apply to
	// the thread's current status.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// NetworkError wraps a failed or unsuccessful request to the notification feed.
// The cache is never modified by the failing request.
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
