package storage

import (
	"context"
	"time"
)

// DispatchLogEntry records a single alert delivery attempt.
type DispatchLogEntry struct {
	ID          int64     `json:"id"`
	Channel     string    `json:"channel"`
	Fingerprint string    `json:"fingerprint"`
	Summary     string    `json:"summary"`
	Status      string    `json:"status"`
	ErrorMsg    string    `json:"error_msg"`
	CreatedAt   time.Time `json:"created_at"`
}

// DispatchLogStore defines the interface for persisting delivery attempts.
type DispatchLogStore interface {
	// LogDispatch records an alert delivery attempt.
	LogDispatch(ctx context.Context, entry DispatchLogEntry) error
	// ListDispatches returns the most recent entries, up to limit.
	ListDispatches(ctx context.Context, limit int) ([]DispatchLogEntry, error)
}
