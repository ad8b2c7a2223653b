// Package store keeps the local thread cache consistent with the remote
// notification feed and exposes composed views of it.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/spiffcs/ghinbox/internal/cache"
	"github.com/spiffcs/ghinbox/internal/ghclient"
	"github.com/spiffcs/ghinbox/internal/log"
	"github.com/spiffcs/ghinbox/internal/model"
	"github.com/spiffcs/ghinbox/internal/scorer"
	"github.com/spiffcs/ghinbox/internal/view"
)

// Fetcher is the remote notification feed.
type Fetcher interface {
	FetchPage(ctx context.Context, pr ghclient.PageRequest) (*ghclient.Page, error)
	MarkThreadRead(ctx context.Context, id string) error
}

// TokenFunc returns the current credential, or "" when there is none.
type TokenFunc func() string

// SyncResult summarizes one sync pass.
type SyncResult struct {
	PassID       uuid.UUID     `json:"pass"`
	StartedAt    time.Time     `json:"started_at"`
	Duration     time.Duration `json:"duration"`
	Pages        int           `json:"pages"`
	Created      int           `json:"created"`
	Updated      int           `json:"updated"`
	Stale        int           `json:"stale"`
	NotModified  bool          `json:"not_modified"`
	PollInterval time.Duration `json:"poll_interval,omitempty"`
}

// Snapshot is the view handed to presentation code.
type Snapshot struct {
	view.Page
	QueuedCount int `json:"queued_count"`
	StagedCount int `json:"staged_count"`
	ClosedCount int `json:"closed_count"`
}

// Store is the notification synchronization engine.
type Store struct {
	fetcher Fetcher
	cache   cache.Cache
	token   TokenFunc

	policy      scorer.Policy
	stopOnStale bool
	maxPages    int
	perPage     int
	timeout     time.Duration
	now         func() time.Time
	logger      *slog.Logger

	// mu serializes every read-modify-write of a cached thread.
	mu sync.Mutex

	syncing atomic.Bool

	stateMu      sync.RWMutex
	lastModified string
	pollInterval time.Duration
	err          error

	subsMu sync.Mutex
	subs   []chan struct{}
}

// Option configures a Store.
type Option func(*Store)

// WithPolicy sets the scoring policy used by Snapshot.
func WithPolicy(p scorer.Policy) Option {
	return func(s *Store) { s.policy = p }
}

// WithStopOnStale controls the pagination early-stop heuristic: when set, a
// page containing any unchanged thread ends the pass.
func WithStopOnStale(stop bool) Option {
	return func(s *Store) { s.stopOnStale = stop }
}

// WithMaxPages bounds the pages fetched in one pass. Zero is unbounded.
func WithMaxPages(n int) Option {
	return func(s *Store) { s.maxPages = n }
}

// WithPerPage sets the requested page size.
func WithPerPage(n int) Option {
	return func(s *Store) { s.perPage = n }
}

// WithTimeout bounds one sync pass. Zero disables the timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Store) { s.timeout = d }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger for sync passes.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New creates a Store over an injected feed, cache and credential accessor.
func New(fetcher Fetcher, c cache.Cache, token TokenFunc, opts ...Option) *Store {
	s := &Store{
		fetcher:     fetcher,
		cache:       c,
		token:       token,
		policy:      scorer.DefaultPolicy(),
		stopOnStale: true,
		perPage:     ghclient.DefaultPerPage,
		now:         time.Now,
		logger:      log.Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Policy returns the scoring policy used by Snapshot.
func (s *Store) Policy() scorer.Policy {
	return s.policy
}

// Err returns the error recorded by the most recent operation, or nil if it succeeded.
func (s *Store) Err() error {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.err
}

func (s *Store) setErr(err error) {
	s.stateMu.Lock()
	s.err = err
	s.stateMu.Unlock()
}

// PollInterval returns the latest minimum polling interval requested by the server.
func (s *Store) PollInterval() time.Duration {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.pollInterval
}

// LastModified returns the conditional fetch token for the next pass.
func (s *Store) LastModified() string {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.lastModified
}

// Subscribe returns a channel that receives a value whenever the cache
// changes. Signals coalesce; a slow reader sees at least one.
func (s *Store) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)
	s.subsMu.Lock()
	s.subs = append(s.subs, ch)
	s.subsMu.Unlock()
	return ch
}

func (s *Store) notify() {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Snapshot composes the current view of the cache for q.
func (s *Store) Snapshot(ctx context.Context, q view.Query) (Snapshot, error) {
	threads, err := s.cache.List(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to list cached threads: %w", err)
	}

	snap := Snapshot{Page: view.Compose(threads, q, s.policy, s.now())}
	for _, t := range threads {
		switch t.Status {
		case model.StatusQueued:
			snap.QueuedCount++
		case model.StatusStaged:
			snap.StagedCount++
		case model.StatusClosed:
			snap.ClosedCount++
		}
	}
	return snap, nil
}
