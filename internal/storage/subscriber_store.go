// Package storage defines the persistence interfaces and their SQLite
// implementations for subscribers, daily stats, and the dispatch log.
package storage

import (
	"context"
	"time"
)

// Subscriber is a persisted email subscription. Hash is the keyed hash that
// authorizes unsubscription for this record.
type Subscriber struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Hash      string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// SubscriberStore defines the interface for persisting email subscribers.
type SubscriberStore interface {
	// Upsert creates or replaces the subscriber record keyed by email.
	Upsert(ctx context.Context, sub Subscriber) error
	// Get returns the subscriber for the given email, or nil if absent.
	Get(ctx context.Context, email string) (*Subscriber, error)
	// Delete removes the subscriber for the given email.
	// Deleting an absent email is not an error.
	Delete(ctx context.Context, email string) error
	// List returns all subscribers ordered by creation time.
	List(ctx context.Context) ([]Subscriber, error)
}
