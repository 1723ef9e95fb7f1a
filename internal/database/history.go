package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// HistoryEntry is one recorded file lifecycle event.
type HistoryEntry struct {
	ID         string
	Kind       string
	Path       string
	OccurredAt time.Time
}

// AppendHistory stores e. Appending an entry whose ID is already stored is
// a no-op, so redelivered events are harmless.
func (d *Database) AppendHistory(ctx context.Context, e HistoryEntry) error {
	return d.withTx(ctx, "append_history", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO history (id, kind, path, occurred_at) VALUES (?, ?, ?, ?) ON CONFLICT(id) DO NOTHING",
			e.ID, e.Kind, e.Path, e.OccurredAt.UnixMilli(),
		)
		if err != nil {
			return fmt.Errorf("append history %s: %w", e.ID, err)
		}
		return nil
	})
}

// ListHistory returns up to limit entries, newest first. A non-positive
// limit returns everything.
func (d *Database) ListHistory(ctx context.Context, limit int) ([]HistoryEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if limit <= 0 {
		limit = -1
	}
	rows, err := d.db.QueryContext(ctx,
		"SELECT id, kind, path, occurred_at FROM history ORDER BY occurred_at DESC, rowid DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var (
			e  HistoryEntry
			ms int64
		)
		if err := rows.Scan(&e.ID, &e.Kind, &e.Path, &ms); err != nil {
			return nil, err
		}
		e.OccurredAt = time.UnixMilli(ms)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
