// Package history keeps a SQLite ledger of finished runs so operators can see
// which commenters were picked up and why runs stopped.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"ytthumb/internal/pipeline"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id       TEXT PRIMARY KEY,
	video_id     TEXT NOT NULL,
	status       TEXT NOT NULL,
	commenter    TEXT NOT NULL DEFAULT '',
	previous     TEXT NOT NULL DEFAULT '',
	photo_url    TEXT NOT NULL DEFAULT '',
	photo_bytes  INTEGER NOT NULL DEFAULT 0,
	failed_stage TEXT NOT NULL DEFAULT '',
	error        TEXT NOT NULL DEFAULT '',
	started_at   INTEGER NOT NULL,
	finished_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS runs_started_at ON runs(started_at);
`

// Entry is one recorded run.
type Entry struct {
	RunID       string
	VideoID     string
	Status      string
	Commenter   string
	Previous    string
	PhotoURL    string
	PhotoBytes  int64
	FailedStage string
	Error       string
	StartedAt   time.Time
	FinishedAt  time.Time
}

// Store is a SQLite-backed run ledger.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Record stores a finished run.
func (s *Store) Record(ctx context.Context, rep *pipeline.Report) error {
	errText := ""
	if rep.Err != nil {
		errText = rep.Err.Error()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (run_id, video_id, status, commenter, previous, photo_url,
			photo_bytes, failed_stage, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rep.RunID, rep.VideoID, string(rep.Status), rep.Commenter, rep.Previous, rep.PhotoURL,
		rep.PhotoBytes, string(rep.FailedStage), errText,
		rep.StartedAt.UnixMilli(), rep.FinishedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", rep.RunID, err)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, video_id, status, commenter, previous, photo_url, photo_bytes,
			failed_stage, error, started_at, finished_at
		FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var started, finished int64
		if err := rows.Scan(&e.RunID, &e.VideoID, &e.Status, &e.Commenter, &e.Previous,
			&e.PhotoURL, &e.PhotoBytes, &e.FailedStage, &e.Error, &started, &finished); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		e.StartedAt = time.UnixMilli(started)
		e.FinishedAt = time.UnixMilli(finished)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
