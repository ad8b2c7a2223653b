package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/spiffcs/ghinbox/internal/store"
)

type fakeSyncer struct {
	mu      sync.Mutex
	calls   int
	errs    []error
	poll    time.Duration
	release chan struct{}
	started chan struct{}
}

func (f *fakeSyncer) Sync(ctx context.Context) (store.SyncResult, error) {
	f.mu.Lock()
	f.calls++
	var err error
	if len(f.errs) > 0 {
		err, f.errs = f.errs[0], f.errs[1:]
	}
	started, release := f.started, f.release
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		<-release
	}
	if err != nil {
		return store.SyncResult{}, err
	}
	return store.SyncResult{Pages: 1, Created: 2}, nil
}

func (f *fakeSyncer) PollInterval() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.poll
}

func (f *fakeSyncer) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestBackoff(t *testing.T) {
	tests := []struct {
		failures int
		want     time.Duration
	}{
		{failures: 0, want: 10 * time.Second},
		{failures: 1, want: 20 * time.Second},
		{failures: 2, want: 40 * time.Second},
		{failures: 3, want: 80 * time.Second},
		{failures: 4, want: 2 * time.Minute},
		{failures: 60, want: 2 * time.Minute},
	}
	for _, tt := range tests {
		if got := Backoff(10*time.Second, 2*time.Minute, tt.failures); got != tt.want {
			t.Errorf("Backoff(10s, 2m, %d) = %v, want %v", tt.failures, got, tt.want)
		}
	}
}

func TestNextDelayRespectsPollInterval(t *testing.T) {
	f := &fakeSyncer{poll: time.Minute}
	s := New(f, WithInterval(10*time.Second), WithLogger(quietLogger()))

	if got := s.nextDelay(); got != time.Minute {
		t.Errorf("nextDelay() = %v, want 1m", got)
	}

	f.mu.Lock()
	f.poll = 0
	f.mu.Unlock()
	if got := s.nextDelay(); got != 10*time.Second {
		t.Errorf("nextDelay() = %v, want 10s", got)
	}
}

func TestTickTracksFailures(t *testing.T) {
	boom := errors.New("boom")
	f := &fakeSyncer{errs: []error{boom, boom, nil}}
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	var observed []error
	s := New(f,
		WithInterval(10*time.Second),
		WithBackoffMax(time.Minute),
		WithLogger(quietLogger()),
		WithMetrics(m),
		WithObserver(func(_ store.SyncResult, err error) { observed = append(observed, err) }),
	)
	ctx := context.Background()

	s.tick(ctx)
	s.tick(ctx)
	if got := s.Status().Failures; got != 2 {
		t.Fatalf("Failures = %d, want 2", got)
	}
	if got := s.nextDelay(); got != 40*time.Second {
		t.Errorf("nextDelay() after 2 failures = %v, want 40s", got)
	}
	if !errors.Is(s.Status().LastError, boom) {
		t.Errorf("LastError = %v, want boom", s.Status().LastError)
	}

	s.tick(ctx)
	st := s.Status()
	if st.Failures != 0 || st.LastError != nil || st.LastSync.IsZero() {
		t.Errorf("Status after success = %+v, want reset failures", st)
	}
	if got := s.nextDelay(); got != 10*time.Second {
		t.Errorf("nextDelay() after success = %v, want 10s", got)
	}

	if len(observed) != 3 {
		t.Errorf("observer called %d times, want 3", len(observed))
	}
	if got := testutil.ToFloat64(m.passes.WithLabelValues(resultError)); got != 2 {
		t.Errorf("error passes = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.passes.WithLabelValues(resultOK)); got != 1 {
		t.Errorf("ok passes = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.failures); got != 0 {
		t.Errorf("consecutive failures gauge = %v, want 0", got)
	}
}

func TestTickSkipsWhileInFlight(t *testing.T) {
	f := &fakeSyncer{started: make(chan struct{}, 1), release: make(chan struct{})}
	m := NewMetrics(prometheus.NewRegistry())
	s := New(f, WithLogger(quietLogger()), WithMetrics(m))

	done := make(chan struct{})
	go func() {
		s.tick(context.Background())
		close(done)
	}()
	<-f.started

	s.tick(context.Background())
	if got := f.Calls(); got != 1 {
		t.Errorf("Sync calls = %d, want 1", got)
	}
	if got := testutil.ToFloat64(m.passes.WithLabelValues(resultSkipped)); got != 1 {
		t.Errorf("skipped passes = %v, want 1", got)
	}

	close(f.release)
	<-done
}

func TestTickIgnoresStoreGate(t *testing.T) {
	f := &fakeSyncer{errs: []error{store.ErrSyncInProgress}}
	s := New(f, WithLogger(quietLogger()))

	s.tick(context.Background())
	if got := s.Status().Failures; got != 0 {
		t.Errorf("Failures = %d, want 0 for a gated pass", got)
	}
}

func TestStartTriggerStop(t *testing.T) {
	f := &fakeSyncer{}
	s := New(f, WithInterval(time.Hour), WithLogger(quietLogger()))

	s.Start(context.Background())
	s.Start(context.Background())
	waitFor(t, "initial pass", func() bool { return f.Calls() == 1 })

	s.TriggerNow()
	waitFor(t, "triggered pass", func() bool { return f.Calls() == 2 })

	waitFor(t, "next run scheduled", func() bool { return !s.Status().NextRun.IsZero() })

	s.Stop()
	if st := s.Status(); st.State != StateStopped {
		t.Errorf("State after Stop = %v, want stopped", st.State)
	}

	s.TriggerNow()
	time.Sleep(20 * time.Millisecond)
	if got := f.Calls(); got != 2 {
		t.Errorf("Sync calls after Stop = %d, want 2", got)
	}
	s.Stop()
}

func TestRunStopsOnCancel(t *testing.T) {
	f := &fakeSyncer{}
	s := New(f, WithInterval(time.Hour), WithLogger(quietLogger()))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()

	waitFor(t, "initial pass", func() bool { return f.Calls() == 1 })
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}
