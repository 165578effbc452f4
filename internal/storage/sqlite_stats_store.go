package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQLiteStatsStore implements StatsStore backed by SQLite.
type SQLiteStatsStore struct {
	db *sql.DB
}

// NewSQLiteStatsStore returns a new SQLiteStatsStore.
func NewSQLiteStatsStore(db *sql.DB) *SQLiteStatsStore {
	return &SQLiteStatsStore{db: db}
}

// Append records an entry under the given day, creating the day bucket first
// if needed (upsert-and-append).
func (s *SQLiteStatsStore) Append(ctx context.Context, day string, entry StatEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning stats transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO stat_days (day, created_at) VALUES (?, ?)
		ON CONFLICT(day) DO NOTHING`,
		day, time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("upserting stat day: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO stat_entries
			(day, pincode, center, block_name, session_date, capacity, dose1, dose2, vaccine, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		day, entry.Pincode, entry.Center, entry.BlockName, entry.SessionDate,
		entry.Capacity, entry.Dose1, entry.Dose2, entry.Vaccine, entry.RecordedAt,
	); err != nil {
		return fmt.Errorf("appending stat entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing stats transaction: %w", err)
	}
	return nil
}

// Day returns the bucket for the given day, or nil if absent.
func (s *SQLiteStatsStore) Day(ctx context.Context, day string) (*StatDay, error) {
	var exists string
	err := s.db.QueryRowContext(ctx, `SELECT day FROM stat_days WHERE day = ?`, day).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying stat day: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, pincode, center, block_name, session_date, capacity, dose1, dose2, vaccine, recorded_at
		FROM stat_entries WHERE day = ? ORDER BY id`, day)
	if err != nil {
		return nil, fmt.Errorf("querying stat entries: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	bucket := &StatDay{Day: day}
	for rows.Next() {
		var e StatEntry
		if err := rows.Scan(&e.ID, &e.Pincode, &e.Center, &e.BlockName, &e.SessionDate,
			&e.Capacity, &e.Dose1, &e.Dose2, &e.Vaccine, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("scanning stat entry row: %w", err)
		}
		bucket.Entries = append(bucket.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating stat entry rows: %w", err)
	}
	return bucket, nil
}
