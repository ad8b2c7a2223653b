// Package cache persists notification threads keyed by thread id.
// The store owns merge semantics; a Cache only owns the storage medium.
package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spiffcs/ghinbox/internal/model"
)

// ErrNotFound is returned when a thread id is not in the cache.
var ErrNotFound = errors.New("thread not found")

// Cache is the persisted thread mapping injected into the store.
type Cache interface {
	// Get returns the thread for id, or ErrNotFound.
	Get(ctx context.Context, id string) (model.Thread, error)
	// Set inserts or replaces a thread.
	Set(ctx context.Context, t model.Thread) error
	// Remove closes a thread. Threads are never physically deleted because
	// a closed thread can reappear with new activity and must keep its history.
	Remove(ctx context.Context, id string) error
	// Clear wipes every thread.
	Clear(ctx context.Context) error
	// List returns every cached thread in no particular order.
	List(ctx context.Context) ([]model.Thread, error)
	// Close releases backend resources.
	Close() error
}

// BatchSetter is implemented by backends that can write several threads in
// one operation. Either every thread is stored or none is.
type BatchSetter interface {
	SetMany(ctx context.Context, threads []model.Thread) error
}

// SetAll stores threads through SetMany when c supports it and falls back
// to one Set per thread otherwise.
func SetAll(ctx context.Context, c Cache, threads []model.Thread) error {
	if len(threads) == 0 {
		return nil
	}
	if b, ok := c.(BatchSetter); ok {
		return b.SetMany(ctx, threads)
	}
	for _, t := range threads {
		if err := c.Set(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

// Backend names a cache implementation.
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendFile   Backend = "file"
	BackendSQLite Backend = "sqlite"
	BackendRedis  Backend = "redis"
)

// Backends lists the supported backends.
var Backends = []Backend{BackendFile, BackendSQLite, BackendRedis, BackendMemory}

// Config selects and configures a backend.
type Config struct {
	Backend  Backend
	Path     string // file and sqlite: location on disk; empty uses DefaultDir
	RedisURL string
}

// DefaultDir returns the default cache directory.
func DefaultDir() string {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return ".ghinbox"
	}
	return filepath.Join(cacheDir, "ghinbox")
}

// Open constructs the configured backend.
func Open(ctx context.Context, cfg Config) (Cache, error) {
	switch cfg.Backend {
	case BackendMemory:
		return NewMemory(), nil
	case BackendFile, "":
		path := cfg.Path
		if path == "" {
			path = filepath.Join(DefaultDir(), "threads.json")
		}
		return NewFile(path)
	case BackendSQLite:
		path := cfg.Path
		if path == "" {
			path = filepath.Join(DefaultDir(), "threads.db")
		}
		return NewSQLite(path)
	case BackendRedis:
		return NewRedis(ctx, RedisConfig{URL: cfg.RedisURL})
	default:
		return nil, fmt.Errorf("unknown cache backend %q (must be file, sqlite, redis, or memory)", cfg.Backend)
	}
}

// CountByStatus tallies cached threads per status.
func CountByStatus(ctx context.Context, c Cache) (map[model.Status]int, error) {
	threads, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	counts := make(map[model.Status]int, len(model.AllStatuses))
	for _, t := range threads {
		counts[t.Status]++
	}
	return counts, nil
}

// ensureDir creates the parent directory of path.
func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	return nil
}
