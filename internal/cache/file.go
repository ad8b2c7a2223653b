package cache

import (
	"context"
	"fmt"
	"os"
	"sync"

	go_json "github.com/goccy/go-json"

	"github.com/spiffcs/ghinbox/internal/log"
	"github.com/spiffcs/ghinbox/internal/model"
)

// Version is bumped whenever the on-disk thread format changes.
// Files written with another version are discarded on load.
const Version = 1

var (
	_ Cache       = (*File)(nil)
	_ BatchSetter = (*File)(nil)
)

type fileEnvelope struct {
	Version int                     `json:"version"`
	Threads map[string]model.Thread `json:"threads"`
}

// File keeps every thread in a single JSON document, rewritten atomically
// on each mutation.
type File struct {
	path    string
	threads map[string]model.Thread
	mu      sync.RWMutex
}

// NewFile opens (or creates) a JSON file cache at path.
func NewFile(path string) (*File, error) {
	if err := ensureDir(path); err != nil {
		return nil, err
	}

	f := &File{
		path:    path,
		threads: make(map[string]model.Thread),
	}

	if err := f.load(); err != nil {
		log.Debug("could not load thread cache, starting fresh", "path", path, "error", err)
		f.threads = make(map[string]model.Thread)
	}

	return f, nil
}

// Path returns the file location.
func (f *File) Path() string {
	return f.path
}

func (f *File) load() error {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var env fileEnvelope
	if err := go_json.Unmarshal(data, &env); err != nil {
		return err
	}
	if env.Version != Version {
		log.Debug("cache version mismatch", "cached", env.Version, "current", Version)
		return nil
	}
	if env.Threads != nil {
		f.threads = env.Threads
	}
	return nil
}

// save writes the threads to disk atomically. Callers hold f.mu.
func (f *File) save() error {
	data, err := go_json.MarshalIndent(fileEnvelope{Version: Version, Threads: f.threads}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal thread cache: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write thread cache: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace thread cache: %w", err)
	}
	return nil
}

func (f *File) Get(_ context.Context, id string) (model.Thread, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	t, ok := f.threads[id]
	if !ok {
		return model.Thread{}, ErrNotFound
	}
	return t.Clone(), nil
}

func (f *File) Set(_ context.Context, t model.Thread) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	prev, existed := f.threads[t.ID]
	f.threads[t.ID] = t.Clone()
	if err := f.save(); err != nil {
		if existed {
			f.threads[t.ID] = prev
		} else {
			delete(f.threads, t.ID)
		}
		return err
	}
	return nil
}

// SetMany stores every thread and rewrites the file once. On a failed
// write the in-memory state is rolled back.
func (f *File) SetMany(_ context.Context, threads []model.Thread) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	prev := make(map[string]model.Thread, len(threads))
	added := make(map[string]bool, len(threads))
	for _, t := range threads {
		if old, ok := f.threads[t.ID]; ok {
			if _, saved := prev[t.ID]; !saved {
				prev[t.ID] = old
			}
		} else {
			added[t.ID] = true
		}
		f.threads[t.ID] = t.Clone()
	}

	if err := f.save(); err != nil {
		for id, old := range prev {
			f.threads[id] = old
		}
		for id := range added {
			delete(f.threads, id)
		}
		return err
	}
	return nil
}

func (f *File) Remove(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, ok := f.threads[id]
	if !ok {
		return ErrNotFound
	}
	prev := t.Status
	t.Status = model.StatusClosed
	f.threads[id] = t
	if err := f.save(); err != nil {
		t.Status = prev
		f.threads[id] = t
		return err
	}
	return nil
}

func (f *File) Clear(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.threads = make(map[string]model.Thread)
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove thread cache: %w", err)
	}
	return nil
}

func (f *File) List(_ context.Context) ([]model.Thread, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]model.Thread, 0, len(f.threads))
	for _, t := range f.threads {
		out = append(out, t.Clone())
	}
	return out, nil
}

func (f *File) Close() error { return nil }
