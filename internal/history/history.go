// Package history keeps a SQLite journal of workstream transitions.
//
// Every successful new, next and done is appended as an [Entry]. The journal
// is informational: commands warn and carry on if it cannot be written.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// CurrentSchemaVersion is the schema version written by this release.
const CurrentSchemaVersion = 1

// Actions recorded in the journal.
const (
	ActionNew  = "new"
	ActionNext = "next"
	ActionDone = "done"
)

// Entry is one recorded transition.
type Entry struct {
	ID           string
	Slug         string
	Action       string
	FromStep     string
	ToStep       string
	Mode         string
	PromptTokens int
	CreatedAt    time.Time
}

// Journal is an open history database.
type Journal struct {
	db *sql.DB
}

// Open opens or creates the journal at path and migrates its schema.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open history: %w", err)
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}

	return &Journal{db: db}, nil
}

// dsn escapes path so "?", "#" and "%" in a directory name reach sqlite intact.
func dsn(path string) string {
	u := url.URL{Path: filepath.ToSlash(path)}
	return "file:" + u.EscapedPath() + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

// Close releases the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record appends e, filling ID and CreatedAt when unset.
func (j *Journal) Record(ctx context.Context, e Entry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	_, err := j.db.ExecContext(ctx,
		`INSERT INTO transitions (id, slug, action, from_step, to_step, mode, prompt_tokens, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Slug, e.Action, e.FromStep, e.ToStep, e.Mode, e.PromptTokens,
		e.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to record %s for %s: %w", e.Action, e.Slug, err)
	}
	return nil
}

// List returns up to limit entries, newest first. An empty slug lists every
// workstream; limit <= 0 means no limit.
func (j *Journal) List(ctx context.Context, slug string, limit int) ([]Entry, error) {
	query := `SELECT id, slug, action, from_step, to_step, mode, prompt_tokens, created_at
		FROM transitions`
	var args []any
	if slug != "" {
		query += ` WHERE slug = ?`
		args = append(args, slug)
	}
	query += ` ORDER BY seq DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var created string
		if err := rows.Scan(&e.ID, &e.Slug, &e.Action, &e.FromStep, &e.ToStep, &e.Mode, &e.PromptTokens, &created); err != nil {
			return nil, fmt.Errorf("failed to read history: %w", err)
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow(`PRAGMA user_version`).Scan(&version); err != nil {
		return err
	}

	for v := version + 1; v <= CurrentSchemaVersion; v++ {
		if err := migrateTo(db, v); err != nil {
			return fmt.Errorf("migration to version %d failed: %w", v, err)
		}
		if _, err := db.Exec(fmt.Sprintf(`PRAGMA user_version = %d`, v)); err != nil {
			return err
		}
	}
	return nil
}

func migrateTo(db *sql.DB, version int) error {
	switch version {
	case 1:
		_, err := db.Exec(`
			CREATE TABLE IF NOT EXISTS transitions (
				seq           INTEGER PRIMARY KEY AUTOINCREMENT,
				id            TEXT NOT NULL UNIQUE,
				slug          TEXT NOT NULL,
				action        TEXT NOT NULL,
				from_step     TEXT NOT NULL DEFAULT '',
				to_step       TEXT NOT NULL DEFAULT '',
				mode          TEXT NOT NULL DEFAULT '',
				prompt_tokens INTEGER NOT NULL DEFAULT 0,
				created_at    TEXT NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_transitions_slug ON transitions (slug);
		`)
		return err
	default:
		return fmt.Errorf("unknown migration version: %d", version)
	}
}
