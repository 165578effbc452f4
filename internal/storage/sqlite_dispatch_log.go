package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// SQLiteDispatchLogStore implements DispatchLogStore backed by SQLite.
type SQLiteDispatchLogStore struct {
	db *sql.DB
}

// NewSQLiteDispatchLogStore returns a new SQLiteDispatchLogStore.
func NewSQLiteDispatchLogStore(db *sql.DB) *SQLiteDispatchLogStore {
	return &SQLiteDispatchLogStore{db: db}
}

// LogDispatch inserts a delivery record into the database.
func (s *SQLiteDispatchLogStore) LogDispatch(ctx context.Context, entry DispatchLogEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO dispatch_log (channel, fingerprint, summary, status, error_msg, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.Channel, entry.Fingerprint, entry.Summary,
		entry.Status, entry.ErrorMsg, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting dispatch log: %w", err)
	}
	return nil
}

// ListDispatches returns the most recent entries ordered by created_at descending.
func (s *SQLiteDispatchLogStore) ListDispatches(ctx context.Context, limit int) ([]DispatchLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, channel, fingerprint, summary, status, error_msg, created_at
		FROM dispatch_log
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying dispatch log: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var entries []DispatchLogEntry
	for rows.Next() {
		var e DispatchLogEntry
		if err := rows.Scan(&e.ID, &e.Channel, &e.Fingerprint, &e.Summary,
			&e.Status, &e.ErrorMsg, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning dispatch log row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating dispatch log rows: %w", err)
	}
	return entries, nil
}
