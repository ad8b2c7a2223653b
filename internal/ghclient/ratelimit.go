package ghclient

import (
	"errors"
	"sync"
	"time"
)

// ErrRateLimited is returned when the GitHub API rate limit has been exceeded.
// Requests fail locally with this error until the reported reset time passes.
var ErrRateLimited = errors.New("rate limited")

// RateLimitState tracks the rate limit headers observed by one client.
type RateLimitState struct {
	mu        sync.RWMutex
	limited   bool
	resetAt   time.Time
	remaining int
	limit     int
	now       func() time.Time
}

func (s *RateLimitState) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

// IsLimited returns true while a hit limit has not yet reset.
func (s *RateLimitState) IsLimited() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.limited && s.clock().Before(s.resetAt)
}

// SetLimited records that the limit was hit and when it resets.
func (s *RateLimitState) SetLimited(limited bool, resetAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limited = limited
	s.resetAt = resetAt
}

// Update records the quota reported by a response.
func (s *RateLimitState) Update(remaining, limit int, resetAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remaining = remaining
	s.limit = limit
	s.resetAt = resetAt
	s.limited = remaining == 0
}

// GetStatus returns the last observed quota.
func (s *RateLimitState) GetStatus() (remaining, limit int, resetAt time.Time, limited bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.remaining, s.limit, s.resetAt, s.limited && s.clock().Before(s.resetAt)
}
