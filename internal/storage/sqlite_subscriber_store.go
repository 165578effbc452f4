package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SQLiteSubscriberStore implements SubscriberStore backed by SQLite.
type SQLiteSubscriberStore struct {
	db *sql.DB
}

// NewSQLiteSubscriberStore returns a new SQLiteSubscriberStore.
func NewSQLiteSubscriberStore(db *sql.DB) *SQLiteSubscriberStore {
	return &SQLiteSubscriberStore{db: db}
}

// Upsert creates or replaces the subscriber record keyed by email.
func (s *SQLiteSubscriberStore) Upsert(ctx context.Context, sub Subscriber) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO subscribers (id, email, hash, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(email) DO UPDATE SET hash = excluded.hash`,
		sub.ID, sub.Email, sub.Hash, sub.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting subscriber: %w", err)
	}
	return nil
}

// Get returns the subscriber for the given email, or nil if absent.
func (s *SQLiteSubscriberStore) Get(ctx context.Context, email string) (*Subscriber, error) {
	var sub Subscriber
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, hash, created_at FROM subscribers WHERE email = ?`, email,
	).Scan(&sub.ID, &sub.Email, &sub.Hash, &sub.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying subscriber: %w", err)
	}
	return &sub, nil
}

// Delete removes the subscriber for the given email.
func (s *SQLiteSubscriberStore) Delete(ctx context.Context, email string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM subscribers WHERE email = ?`, email); err != nil {
		return fmt.Errorf("deleting subscriber: %w", err)
	}
	return nil
}

// List returns all subscribers ordered by creation time.
func (s *SQLiteSubscriberStore) List(ctx context.Context) ([]Subscriber, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, email, hash, created_at FROM subscribers ORDER BY created_at, email`)
	if err != nil {
		return nil, fmt.Errorf("querying subscribers: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var subs []Subscriber
	for rows.Next() {
		var sub Subscriber
		if err := rows.Scan(&sub.ID, &sub.Email, &sub.Hash, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning subscriber row: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating subscriber rows: %w", err)
	}
	return subs, nil
}
