package sink

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hazyhaar/hintnav/hintnav/report"
)

// HistorySchema is the activation log table.
const HistorySchema = `
CREATE TABLE IF NOT EXISTS hint_activations (
	id         TEXT PRIMARY KEY,
	page_url   TEXT NOT NULL DEFAULT '',
	frame      TEXT NOT NULL DEFAULT '',
	node_name  TEXT NOT NULL DEFAULT '',
	text       TEXT NOT NULL DEFAULT '',
	label      TEXT NOT NULL DEFAULT '',
	url        TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_hint_activations_created ON hint_activations(created_at DESC);
`

var pragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA busy_timeout = 10000",
	"PRAGMA synchronous = NORMAL",
}

// OpenHistoryDB opens (creating if needed) an SQLite activation log at
// path. The caller must blank-import modernc.org/sqlite.
func OpenHistoryDB(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("history: mkdir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open: %w", err)
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("history: %s: %w", p, err)
		}
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: ping: %w", err)
	}
	return db, nil
}

// History appends activations to an SQLite table.
type History struct {
	db    *sql.DB
	owned bool
}

// NewHistory uses db as is and creates the table. Close leaves db open.
func NewHistory(db *sql.DB) (*History, error) {
	if _, err := db.Exec(HistorySchema); err != nil {
		return nil, fmt.Errorf("history: schema: %w", err)
	}
	return &History{db: db}, nil
}

// OpenHistory opens the database at path and owns it.
func OpenHistory(path string) (*History, error) {
	db, err := OpenHistoryDB(path)
	if err != nil {
		return nil, err
	}
	h, err := NewHistory(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	h.owned = true
	return h, nil
}

func (h *History) Send(ctx context.Context, act report.Activation) error {
	_, err := h.db.ExecContext(ctx, `
		INSERT INTO hint_activations (id, page_url, frame, node_name, text, label, url, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		act.ID, act.PageURL, act.Window, act.Record.NodeName, act.Record.Text,
		act.Record.ID, act.Record.URL, act.Timestamp)
	if err != nil {
		return fmt.Errorf("history: insert: %w", err)
	}
	return nil
}

// Recent returns the latest activations, newest first.
func (h *History) Recent(ctx context.Context, limit int) ([]report.Activation, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := h.db.QueryContext(ctx, `
		SELECT id, page_url, frame, node_name, text, label, url, created_at
		FROM hint_activations
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: query: %w", err)
	}
	defer rows.Close()

	var out []report.Activation
	for rows.Next() {
		var a report.Activation
		if err := rows.Scan(&a.ID, &a.PageURL, &a.Window, &a.Record.NodeName, &a.Record.Text,
			&a.Record.ID, &a.Record.URL, &a.Timestamp); err != nil {
			return nil, fmt.Errorf("history: scan: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (h *History) Close() error {
	if h.owned {
		return h.db.Close()
	}
	return nil
}
