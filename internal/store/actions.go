package store

import (
	"context"
	"fmt"

	"github.com/spiffcs/ghinbox/internal/log"
	"github.com/spiffcs/ghinbox/internal/model"
)

// MarkAsRead marks a thread read upstream and then closes it locally.
// The cache is only touched after the remote call succeeds.
func (s *Store) MarkAsRead(ctx context.Context, id string) error {
	if s.token() == "" {
		s.setErr(ErrUnauthenticated)
		return ErrUnauthenticated
	}
	if _, err := s.cache.Get(ctx, id); err != nil {
		err = fmt.Errorf("failed to read thread %s: %w", id, err)
		s.setErr(err)
		return err
	}

	if err := s.fetcher.MarkThreadRead(ctx, id); err != nil {
		err = &NetworkError{Op: fmt.Sprintf("mark thread %s as read", id), Err: err}
		s.setErr(err)
		s.logger.Warn("mark as read failed", log.Thread(id), "error", err)
		return err
	}

	s.mu.Lock()
	err := s.cache.Remove(ctx, id)
	s.mu.Unlock()
	if err != nil {
		err = fmt.Errorf("failed to close thread %s: %w", id, err)
		s.setErr(err)
		return err
	}

	s.logger.Debug("thread marked as read", log.Thread(id))
	s.setErr(nil)
	s.notify()
	return nil
}

// StageThread moves a queued thread to staged. It is a local workflow
// state with no upstream counterpart. Staging a staged thread is a no-op.
func (s *Store) StageThread(ctx context.Context, id string) error {
	return s.transition(ctx, id, model.StatusStaged, model.StatusQueued)
}

// RestoreThread returns a staged or closed thread to queued.
// Restoring a queued thread is a no-op.
func (s *Store) RestoreThread(ctx context.Context, id string) error {
	return s.transition(ctx, id, model.StatusQueued, model.StatusStaged, model.StatusClosed)
}

// transition sets a thread's status to `to` if its current status is one of `from`.
func (s *Store) transition(ctx context.Context, id string, to model.Status, from ...model.Status) error {
	s.mu.Lock()
	changed, err := s.transitionLocked(ctx, id, to, from)
	s.mu.Unlock()

	s.setErr(err)
	if err != nil {
		return err
	}
	if changed {
		s.logger.Debug("thread status changed", log.Thread(id), "status", to)
		s.notify()
	}
	return nil
}

func (s *Store) transitionLocked(ctx context.Context, id string, to model.Status, from []model.Status) (bool, error) {
	t, err := s.cache.Get(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to read thread %s: %w", id, err)
	}
	if t.Status == to {
		return false, nil
	}

	allowed := false
	for _, st := range from {
		if t.Status == st {
			allowed = true
			break
		}
	}
	if !allowed {
		return false, fmt.Errorf("%w: thread %s is %s, cannot move to %s", ErrInvalidTransition, id, t.Status, to)
	}

	t.Status = to
	if err := s.cache.Set(ctx, t); err != nil {
		return false, fmt.Errorf("failed to store thread %s: %w", id, err)
	}
	return true, nil
}

// ClearCache wipes the cache, resets the conditional fetch token and, when a
// credential is available, resyncs from empty.
func (s *Store) ClearCache(ctx context.Context) error {
	if !s.syncing.CompareAndSwap(false, true) {
		return ErrSyncInProgress
	}
	defer s.syncing.Store(false)

	s.mu.Lock()
	err := s.cache.Clear(ctx)
	s.mu.Unlock()
	if err != nil {
		err = fmt.Errorf("failed to clear cache: %w", err)
		s.setErr(err)
		return err
	}

	s.stateMu.Lock()
	s.lastModified = ""
	s.err = nil
	s.stateMu.Unlock()

	s.logger.Info("cache cleared")
	s.notify()

	if s.token() == "" {
		return nil
	}
	_, err = s.runPass(ctx)
	return err
}
