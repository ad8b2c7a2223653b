package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spiffcs/ghinbox/config"
	"github.com/spiffcs/ghinbox/internal/cache"
	"github.com/spiffcs/ghinbox/internal/credential"
	"github.com/spiffcs/ghinbox/internal/ghclient"
	"github.com/spiffcs/ghinbox/internal/history"
	"github.com/spiffcs/ghinbox/internal/log"
	"github.com/spiffcs/ghinbox/internal/output"
	"github.com/spiffcs/ghinbox/internal/store"
)

// inboxRuntime bundles the collaborators shared by the inbox commands.
type inboxRuntime struct {
	cfg     *config.Config
	creds   *credential.Store
	client  *ghclient.Client
	cache   cache.Cache
	store   *store.Store
	history *history.Log
}

// newRuntime loads configuration and wires the client, cache and store.
func newRuntime(ctx context.Context) (*inboxRuntime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	creds := credential.NewStore()
	client, err := ghclient.NewClient(ctx, creds.Token)
	if err != nil {
		return nil, err
	}

	c, err := cache.Open(ctx, cfg.CacheConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	settings := cfg.SyncSettings()
	st := store.New(client, c, creds.Token,
		store.WithPolicy(cfg.ScoringPolicy()),
		store.WithStopOnStale(settings.StopOnStale),
		store.WithMaxPages(settings.MaxPages),
		store.WithPerPage(settings.PerPage),
		store.WithTimeout(settings.Timeout),
		store.WithLogger(log.Logger()),
	)

	hist, err := history.New(history.DefaultPath())
	if err != nil {
		log.Warn("sync history disabled", "error", err)
	}

	return &inboxRuntime{
		cfg:     cfg,
		creds:   creds,
		client:  client,
		cache:   c,
		store:   st,
		history: hist,
	}, nil
}

// Close releases the cache backend.
func (rt *inboxRuntime) Close() {
	if err := rt.cache.Close(); err != nil {
		log.Warn("failed to close cache", "error", err)
	}
}

// sync runs one pass and records it in the history log.
func (rt *inboxRuntime) sync(ctx context.Context) (store.SyncResult, error) {
	res, err := rt.store.Sync(ctx)
	rt.recordPass(res, err)
	return res, err
}

// recordPass appends a finished pass to the history log. Passes skipped
// because another one was running are not recorded.
func (rt *inboxRuntime) recordPass(res store.SyncResult, err error) {
	if rt.history == nil || errors.Is(err, store.ErrSyncInProgress) || errors.Is(err, store.ErrUnauthenticated) {
		return
	}
	if herr := rt.history.Append(history.FromResult(res, err)); herr != nil {
		log.Debug("failed to record sync pass", "error", herr)
	}
}

// outputFormat resolves the flag value, falling back to the configured default.
func (rt *inboxRuntime) outputFormat(flag string) (output.Format, error) {
	if flag == "" {
		flag = rt.cfg.DefaultFormat
	}
	return output.ParseFormat(flag)
}
