// SPDX-License-Identifier: MIT

package gallery

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure Go driver
)

// Entry is one recorded share.
type Entry struct {
	ID         int64     `json:"id"`
	FileName   string    `json:"file"`
	TopText    string    `json:"topText"`
	BottomText string    `json:"bottomText"`
	CreatedAt  time.Time `json:"createdAt"`
}

// HistoryStore records shared memes in sqlite.
type HistoryStore struct {
	db *sql.DB
}

const historySchema = `
CREATE TABLE IF NOT EXISTS share_history (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	file_name   TEXT NOT NULL,
	top_text    TEXT NOT NULL DEFAULT '',
	bottom_text TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_share_history_created ON share_history(created_at DESC);
`

// OpenHistory opens (and migrates) the share-history database. WAL mode and
// busy_timeout are applied through the DSN so they cover every pooled
// connection.
func OpenHistory(path string) (*HistoryStore, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open failed: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(1 * time.Hour)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping failed: %w", err)
	}
	if _, err := db.Exec(historySchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: migrate share_history: %w", err)
	}

	return &HistoryStore{db: db}, nil
}

// Record inserts one share entry.
func (h *HistoryStore) Record(ctx context.Context, e Entry) error {
	_, err := h.db.ExecContext(ctx,
		`INSERT INTO share_history (file_name, top_text, bottom_text, created_at) VALUES (?, ?, ?, ?)`,
		e.FileName, e.TopText, e.BottomText, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert share entry: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (h *HistoryStore) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := h.db.QueryContext(ctx,
		`SELECT id, file_name, top_text, bottom_text, created_at
		 FROM share_history ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query share history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.FileName, &e.TopText, &e.BottomText, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan share entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate share history: %w", err)
	}
	return entries, nil
}

// Ping verifies the store is reachable; used by the readiness probe.
func (h *HistoryStore) Ping(ctx context.Context) error {
	return h.db.PingContext(ctx)
}

// Close releases the database handle.
func (h *HistoryStore) Close() error {
	return h.db.Close()
}
