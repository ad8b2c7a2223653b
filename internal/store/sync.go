package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/spiffcs/ghinbox/internal/cache"
	"github.com/spiffcs/ghinbox/internal/ghclient"
	"github.com/spiffcs/ghinbox/internal/log"
	"github.com/spiffcs/ghinbox/internal/model"
)

type mergeOutcome int

const (
	mergeCreated mergeOutcome = iota
	mergeUpdated
	mergeStale
)

// Sync runs one pass against the feed. At most one pass runs at a time;
// a concurrent call returns ErrSyncInProgress without touching the cache.
func (s *Store) Sync(ctx context.Context) (SyncResult, error) {
	if s.token() == "" {
		s.setErr(ErrUnauthenticated)
		return SyncResult{}, ErrUnauthenticated
	}
	if !s.syncing.CompareAndSwap(false, true) {
		return SyncResult{}, ErrSyncInProgress
	}
	defer s.syncing.Store(false)

	return s.runPass(ctx)
}

// runPass fetches pages until the feed is exhausted, the early-stop
// heuristic fires or the page limit is reached. The caller holds the sync gate.
func (s *Store) runPass(ctx context.Context) (SyncResult, error) {
	res := SyncResult{PassID: uuid.New(), StartedAt: s.now()}
	logger := s.logger.With(log.Pass(res.PassID))

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	token := s.LastModified()
	var nextToken string

	// Nothing reaches the cache until every page of the pass has been
	// fetched. A failed pass leaves the cache and the token untouched, so
	// the retry starts from page 1 and sees the same threads again.
	var buffered []model.FeedItem
	pending := make(map[string]time.Time)

	fail := func(err error) (SyncResult, error) {
		res.Duration = s.now().Sub(res.StartedAt)
		s.setErr(err)
		logger.Warn("sync pass failed", "pages", res.Pages, "error", err)
		return res, err
	}

	pageNum := 1
	for {
		req := ghclient.PageRequest{Page: pageNum, PerPage: s.perPage}
		// Only the first page is conditional; later pages of the same pass
		// must always return data.
		if pageNum == 1 {
			req.IfModifiedSince = token
		}

		logger.Debug("fetching notifications page", "page", pageNum, "conditional", req.IfModifiedSince != "")
		page, err := s.fetcher.FetchPage(ctx, req)
		if err != nil {
			return fail(classify(pageNum, err))
		}
		res.Pages++

		if page.PollInterval > 0 {
			res.PollInterval = page.PollInterval
			s.stateMu.Lock()
			s.pollInterval = page.PollInterval
			s.stateMu.Unlock()
		}
		if pageNum == 1 {
			nextToken = page.LastModified
		}

		if page.NotModified {
			res.NotModified = true
			break
		}

		everythingUpdated, err := s.stage(ctx, pending, page.Items)
		if err != nil {
			return fail(err)
		}
		buffered = append(buffered, page.Items...)

		if page.NextPage == 0 {
			break
		}
		if page.NextPage <= pageNum {
			return fail(&ghclient.LinkParseError{
				Reason: fmt.Sprintf("next page %d does not follow page %d", page.NextPage, pageNum),
			})
		}
		if s.stopOnStale && !everythingUpdated {
			logger.Debug("stale thread on page, stopping pagination", "page", pageNum)
			break
		}
		if s.maxPages > 0 && res.Pages >= s.maxPages {
			logger.Debug("page limit reached", "max_pages", s.maxPages)
			break
		}
		pageNum = page.NextPage
	}

	if err := s.commit(ctx, buffered, &res); err != nil {
		return fail(err)
	}

	s.stateMu.Lock()
	if nextToken != "" {
		s.lastModified = nextToken
	}
	s.err = nil
	s.stateMu.Unlock()

	res.Duration = s.now().Sub(res.StartedAt)
	logger.Info("sync pass complete",
		"pages", res.Pages,
		"created", res.Created,
		"updated", res.Updated,
		"stale", res.Stale,
		"not_modified", res.NotModified,
		"duration", res.Duration.Round(time.Millisecond),
	)

	if !res.NotModified {
		s.notify()
	}
	return res, nil
}

// stage records a fetched page in the pass buffer and reports whether every
// item was new or changed relative to the cache and the earlier pages.
func (s *Store) stage(ctx context.Context, pending map[string]time.Time, items []model.FeedItem) (bool, error) {
	everythingUpdated := true
	for _, item := range items {
		known, ok := pending[item.ID]
		if !ok {
			existing, err := s.cache.Get(ctx, item.ID)
			switch {
			case err == nil:
				known, ok = existing.UpdatedAt, true
			case !errors.Is(err, cache.ErrNotFound):
				return false, fmt.Errorf("failed to read thread %s: %w", item.ID, err)
			}
		}
		if ok && known.Equal(item.UpdatedAt) {
			everythingUpdated = false
		}
		pending[item.ID] = item.UpdatedAt
	}
	return everythingUpdated, nil
}

// commit merges the buffered items in feed order against the current cache
// and writes every touched thread in one batch. The store lock is held
// throughout so thread actions cannot interleave with the merge.
func (s *Store) commit(ctx context.Context, items []model.FeedItem, res *SyncResult) error {
	if len(items) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	touched := make(map[string]model.Thread, len(items))
	var order []string
	var created, updated, stale int

	for _, item := range items {
		existing, found := touched[item.ID]
		if !found {
			th, err := s.cache.Get(ctx, item.ID)
			switch {
			case err == nil:
				existing, found = th, true
			case !errors.Is(err, cache.ErrNotFound):
				return fmt.Errorf("failed to read thread %s: %w", item.ID, err)
			}
		}

		merged, outcome := merge(existing, found, item)
		switch outcome {
		case mergeCreated:
			created++
		case mergeUpdated:
			updated++
		case mergeStale:
			stale++
			continue
		}
		if _, seen := touched[item.ID]; !seen {
			order = append(order, item.ID)
		}
		touched[item.ID] = merged
	}

	threads := make([]model.Thread, 0, len(order))
	for _, id := range order {
		threads = append(threads, touched[id])
	}
	if err := cache.SetAll(ctx, s.cache, threads); err != nil {
		return fmt.Errorf("failed to store %d threads: %w", len(threads), err)
	}

	res.Created, res.Updated, res.Stale = created, updated, stale
	return nil
}

// merge applies one feed item to its thread.
func merge(existing model.Thread, found bool, item model.FeedItem) (model.Thread, mergeOutcome) {
	if !found {
		return model.NewThread(item), mergeCreated
	}
	if existing.UpdatedAt.Equal(item.UpdatedAt) {
		return existing, mergeStale
	}

	existing.Reasons = append(existing.Reasons, model.ReasonEvent{Reason: item.Reason, Time: item.UpdatedAt})
	existing.UpdatedAt = item.UpdatedAt
	if item.Subject.Title != "" {
		existing.Name = item.Subject.Title
	}
	// Status is left as is. A staged or closed thread with new activity
	// stays out of the queued view; whether it should come back is an open
	// product question.
	return existing, mergeUpdated
}

// classify maps a feed failure onto the store's error taxonomy. Malformed
// pagination headers propagate unchanged.
func classify(page int, err error) error {
	var linkErr *ghclient.LinkParseError
	switch {
	case errors.As(err, &linkErr):
		return err
	case errors.Is(err, ghclient.ErrNoToken):
		return ErrUnauthenticated
	default:
		return &NetworkError{Op: fmt.Sprintf("fetch notifications page %d", page), Err: err}
	}
}
