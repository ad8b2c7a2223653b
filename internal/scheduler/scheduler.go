// Package scheduler runs store sync passes on a timer with at most one
// pass in flight, backing off after failures.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/spiffcs/ghinbox/internal/log"
	"github.com/spiffcs/ghinbox/internal/store"
)

// DefaultInterval is the time between passes when nothing else applies.
const DefaultInterval = 10 * time.Second

// DefaultBackoffMax caps the delay after repeated failures.
const DefaultBackoffMax = 2 * time.Minute

// Syncer runs one sync pass.
type Syncer interface {
	Sync(ctx context.Context) (store.SyncResult, error)
	// PollInterval is the server's requested minimum time between passes.
	PollInterval() time.Duration
}

// State is what the scheduler is doing right now.
type State int

const (
	StateStopped State = iota
	StateIdle
	StateRunning
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	default:
		return "stopped"
	}
}

// Status is a point-in-time view of the scheduler.
type Status struct {
	State      State
	LastResult store.SyncResult
	LastError  error
	LastSync   time.Time // last successful pass
	Failures   int       // consecutive failed passes
	NextRun    time.Time
}

// Scheduler triggers sync passes periodically.
type Scheduler struct {
	syncer     Syncer
	interval   time.Duration
	backoffMax time.Duration
	logger     *slog.Logger
	metrics    *Metrics
	observer   func(store.SyncResult, error)
	now        func() time.Time

	mu       sync.Mutex
	running  bool
	inFlight bool
	status   Status
	stopCh   chan struct{}
	done     chan struct{}

	triggerCh chan struct{}
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithInterval sets the base time between passes.
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithBackoffMax caps the delay after consecutive failures.
func WithBackoffMax(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.backoffMax = d
		}
	}
}

// WithLogger sets the scheduler logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// WithMetrics records every pass in m.
func WithMetrics(m *Metrics) Option {
	return func(s *Scheduler) { s.metrics = m }
}

// WithObserver calls fn after every pass the scheduler runs.
func WithObserver(fn func(store.SyncResult, error)) Option {
	return func(s *Scheduler) { s.observer = fn }
}

// New creates a stopped Scheduler.
func New(syncer Syncer, opts ...Option) *Scheduler {
	s := &Scheduler{
		syncer:     syncer,
		interval:   DefaultInterval,
		backoffMax: DefaultBackoffMax,
		logger:     log.Logger(),
		now:        time.Now,
		triggerCh:  make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.backoffMax < s.interval {
		s.backoffMax = s.interval
	}
	return s
}

// Start launches the loop in the background. The first pass runs
// immediately. Calling Start on a running scheduler does nothing.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.done = make(chan struct{})
	s.status.State = StateIdle

	go s.loop(ctx, s.stopCh, s.done)
}

// Stop halts the loop and waits for an in-flight pass to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	done := s.done
	s.mu.Unlock()

	<-done

	s.mu.Lock()
	s.status.State = StateStopped
	s.status.NextRun = time.Time{}
	s.mu.Unlock()
}

// Run starts the scheduler and blocks until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	s.Start(ctx)
	<-ctx.Done()
	s.Stop()
	return ctx.Err()
}

// TriggerNow requests an immediate pass. Requests made while one is
// already pending are dropped.
func (s *Scheduler) TriggerNow() {
	select {
	case s.triggerCh <- struct{}{}:
	default:
	}
}

// Status returns the current scheduler status.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Scheduler) loop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-timer.C:
		case <-s.triggerCh:
		}

		s.tick(ctx)

		delay := s.nextDelay()
		s.mu.Lock()
		s.status.NextRun = s.now().Add(delay)
		s.mu.Unlock()
		timer.Reset(delay)
	}
}

// tick runs one pass unless another is still in flight.
func (s *Scheduler) tick(ctx context.Context) {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		s.metrics.skipped()
		s.logger.Debug("sync pass still running, skipping tick")
		return
	}
	s.inFlight = true
	s.status.State = StateRunning
	s.mu.Unlock()

	res, err := s.syncer.Sync(ctx)

	s.mu.Lock()
	s.inFlight = false
	if s.running {
		s.status.State = StateIdle
	}
	if errors.Is(err, store.ErrSyncInProgress) {
		s.mu.Unlock()
		s.metrics.skipped()
		s.logger.Debug("sync pass already running elsewhere, skipping tick")
		return
	}
	s.status.LastResult = res
	s.status.LastError = err
	if err != nil {
		s.status.Failures++
	} else {
		s.status.Failures = 0
		s.status.LastSync = s.now()
	}
	failures := s.status.Failures
	s.mu.Unlock()

	s.metrics.observe(res, err, failures)
	if err != nil {
		s.logger.Warn("sync pass failed", log.Pass(res.PassID), "failures", failures, "retry_in", s.nextDelay(), "error", err)
	}
	if s.observer != nil {
		s.observer(res, err)
	}
}

// nextDelay applies backoff and the server's poll interval to the base interval.
func (s *Scheduler) nextDelay() time.Duration {
	s.mu.Lock()
	failures := s.status.Failures
	s.mu.Unlock()

	d := Backoff(s.interval, s.backoffMax, failures)
	if p := s.syncer.PollInterval(); p > d {
		d = p
	}
	return d
}

// Backoff returns min(interval * 2^failures, ceiling).
func Backoff(interval, ceiling time.Duration, failures int) time.Duration {
	d := interval
	for i := 0; i < failures; i++ {
		if d > ceiling/2 {
			return ceiling
		}
		d *= 2
	}
	return min(d, ceiling)
}
