// Package history keeps a JSON Lines log of recent sync passes.
package history

import (
	"bufio"
	"os"
	"path/filepath"
	"sync"
	"time"

	go_json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/spiffcs/ghinbox/internal/cache"
	"github.com/spiffcs/ghinbox/internal/log"
	"github.com/spiffcs/ghinbox/internal/store"
)

// maxRecords is the maximum number of passes retained in the log.
const maxRecords = 1000

// Record describes one sync pass.
type Record struct {
	PassID      string        `json:"pass"`
	StartedAt   time.Time     `json:"ts"`
	Duration    time.Duration `json:"duration"`
	Pages       int           `json:"pages"`
	Created     int           `json:"created"`
	Updated     int           `json:"updated"`
	Stale       int           `json:"stale"`
	NotModified bool          `json:"not_modified,omitempty"`
	Error       string        `json:"error,omitempty"`
}

// FromResult builds a record from a finished pass.
func FromResult(res store.SyncResult, err error) Record {
	r := Record{
		StartedAt:   res.StartedAt,
		Duration:    res.Duration,
		Pages:       res.Pages,
		Created:     res.Created,
		Updated:     res.Updated,
		Stale:       res.Stale,
		NotModified: res.NotModified,
	}
	if res.PassID != uuid.Nil {
		r.PassID = res.PassID.String()
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now()
	}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

// Log manages persistence of pass records as JSON Lines.
type Log struct {
	path string
	mu   sync.Mutex
}

// DefaultPath returns the history file location in the cache directory.
func DefaultPath() string {
	return filepath.Join(cache.DefaultDir(), "history.jsonl")
}

// New creates a log at path, creating its directory.
func New(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	return &Log{path: path}, nil
}

// Path returns the file backing the log.
func (l *Log) Path() string {
	return l.path
}

// Append adds a record and prunes to the last maxRecords entries.
func (l *Log) Append(rec Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.readAll()
	if err != nil {
		log.Debug("could not read sync history, starting fresh", "error", err)
		records = nil
	}

	records = append(records, rec)

	if len(records) > maxRecords {
		records = records[len(records)-maxRecords:]
	}

	return l.writeAll(records)
}

// Recent returns the last n records (or fewer if not enough exist).
func (l *Log) Recent(n int) []Record {
	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.readAll()
	if err != nil {
		return nil
	}

	if len(records) <= n {
		return records
	}
	return records[len(records)-n:]
}

// Clear removes the history file.
func (l *Log) Clear() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (l *Log) readAll() ([]Record, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var records []Record
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := go_json.Unmarshal(line, &rec); err != nil {
			continue // skip malformed lines
		}
		records = append(records, rec)
	}
	return records, scanner.Err()
}

// writeAll replaces the file atomically.
func (l *Log) writeAll(records []Record) error {
	tmp := l.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	enc := go_json.NewEncoder(w)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
			return err
		}
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}

	return os.Rename(tmp, l.path)
}
