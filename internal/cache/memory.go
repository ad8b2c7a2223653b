package cache

import (
	"context"
	"sync"

	"github.com/spiffcs/ghinbox/internal/model"
)

var (
	_ Cache       = (*Memory)(nil)
	_ BatchSetter = (*Memory)(nil)
)

// Memory is a process-local cache. Nothing survives a restart.
type Memory struct {
	mu      sync.RWMutex
	threads map[string]model.Thread
}

// NewMemory creates an empty in-memory cache.
func NewMemory() *Memory {
	return &Memory{threads: make(map[string]model.Thread)}
}

func (m *Memory) Get(_ context.Context, id string) (model.Thread, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.threads[id]
	if !ok {
		return model.Thread{}, ErrNotFound
	}
	return t.Clone(), nil
}

func (m *Memory) Set(_ context.Context, t model.Thread) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.threads[t.ID] = t.Clone()
	return nil
}

func (m *Memory) SetMany(_ context.Context, threads []model.Thread) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, t := range threads {
		m.threads[t.ID] = t.Clone()
	}
	return nil
}

func (m *Memory) Remove(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.threads[id]
	if !ok {
		return ErrNotFound
	}
	t.Status = model.StatusClosed
	m.threads[id] = t
	return nil
}

func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.threads = make(map[string]model.Thread)
	return nil
}

func (m *Memory) List(_ context.Context) ([]model.Thread, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.Thread, 0, len(m.threads))
	for _, t := range m.threads {
		out = append(out, t.Clone())
	}
	return out, nil
}

func (m *Memory) Close() error { return nil }
