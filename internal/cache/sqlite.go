package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	go_json "github.com/goccy/go-json"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/spiffcs/ghinbox/internal/model"
)

var (
	_ Cache       = (*SQLite)(nil)
	_ BatchSetter = (*SQLite)(nil)
)

const upsertThread = `
	INSERT INTO threads (id, status, updated_at, data)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		status = excluded.status,
		updated_at = excluded.updated_at,
		data = excluded.data`

type migration struct {
	version int
	sql     string
}

// migrations must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS threads (
	id         TEXT PRIMARY KEY,
	status     TEXT NOT NULL DEFAULT 'queued',
	updated_at TEXT NOT NULL,
	data       TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_threads_status ON threads(status);
`,
	},
}

// SQLite stores one row per thread. Status lives in its own column so a
// close is a single UPDATE; the rest of the thread is a JSON document.
type SQLite struct {
	db *sqlx.DB
}

type threadRow struct {
	Status string `db:"status"`
	Data   string `db:"data"`
}

// NewSQLite opens (or creates) a SQLite cache at path and applies migrations.
func NewSQLite(path string) (*SQLite, error) {
	if path != ":memory:" {
		if err := ensureDir(path); err != nil {
			return nil, err
		}
	}

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// A single connection keeps ":memory:" databases coherent and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	s := &SQLite{db: db}
	if err := s.runMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

func (s *SQLite) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'")
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}
	if tableCount > 0 {
		if err := s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version"); err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_version (version) VALUES (?)", m.version); err != nil {
			return fmt.Errorf("recording migration v%d: %w", m.version, err)
		}
	}
	return nil
}

func decodeRow(r threadRow) (model.Thread, error) {
	var t model.Thread
	if err := go_json.Unmarshal([]byte(r.Data), &t); err != nil {
		return model.Thread{}, fmt.Errorf("decoding thread: %w", err)
	}
	t.Status = model.Status(r.Status)
	return t, nil
}

func (s *SQLite) Get(ctx context.Context, id string) (model.Thread, error) {
	var r threadRow
	err := s.db.GetContext(ctx, &r, "SELECT status, data FROM threads WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Thread{}, ErrNotFound
	}
	if err != nil {
		return model.Thread{}, fmt.Errorf("getting thread %s: %w", id, err)
	}
	return decodeRow(r)
}

func (s *SQLite) Set(ctx context.Context, t model.Thread) error {
	data, err := go_json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encoding thread %s: %w", t.ID, err)
	}

	_, err = s.db.ExecContext(ctx, upsertThread, t.ID, string(t.Status), t.UpdatedAt.UTC().Format(time.RFC3339Nano), string(data))
	if err != nil {
		return fmt.Errorf("upserting thread %s: %w", t.ID, err)
	}
	return nil
}

// SetMany upserts every thread inside one transaction.
func (s *SQLite) SetMany(ctx context.Context, threads []model.Thread) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, t := range threads {
		data, err := go_json.Marshal(t)
		if err != nil {
			return fmt.Errorf("encoding thread %s: %w", t.ID, err)
		}
		if _, err := tx.ExecContext(ctx, upsertThread, t.ID, string(t.Status), t.UpdatedAt.UTC().Format(time.RFC3339Nano), string(data)); err != nil {
			return fmt.Errorf("upserting thread %s: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing threads: %w", err)
	}
	return nil
}

func (s *SQLite) Remove(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE threads SET status = ? WHERE id = ?", string(model.StatusClosed), id)
	if err != nil {
		return fmt.Errorf("closing thread %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("closing thread %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLite) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM threads"); err != nil {
		return fmt.Errorf("clearing threads: %w", err)
	}
	return nil
}

func (s *SQLite) List(ctx context.Context) ([]model.Thread, error) {
	var rows []threadRow
	if err := s.db.SelectContext(ctx, &rows, "SELECT status, data FROM threads"); err != nil {
		return nil, fmt.Errorf("listing threads: %w", err)
	}

	out := make([]model.Thread, 0, len(rows))
	for _, r := range rows {
		t, err := decodeRow(r)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
