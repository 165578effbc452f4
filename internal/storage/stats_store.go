package storage

import (
	"context"
	"time"
)

// StatEntry is one dispatched-alert record appended to a day bucket.
type StatEntry struct {
	ID          int64     `json:"id"`
	Pincode     string    `json:"pincode"`
	Center      string    `json:"center"`
	BlockName   string    `json:"block_name"`
	SessionDate string    `json:"session_date"`
	Capacity    int       `json:"capacity"`
	Dose1       int       `json:"dose1"`
	Dose2       int       `json:"dose2"`
	Vaccine     string    `json:"vaccine"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// StatDay is a calendar day's bucket of dispatched-alert records.
// Day uses the YYYY-MM-DD layout.
type StatDay struct {
	Day     string      `json:"day"`
	Entries []StatEntry `json:"entries"`
}

// StatsStore defines the interface for the time-bucketed usage log.
type StatsStore interface {
	// Append records an entry under the given day, creating the day bucket
	// if it does not exist yet.
	Append(ctx context.Context, day string, entry StatEntry) error
	// Day returns the bucket for the given day, or nil if no entries were
	// ever recorded for it.
	Day(ctx context.Context, day string) (*StatDay, error)
}
