// Package service contains the application services sitting between the HTTP
// handlers and the stores.
package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/slotwatch/slotwatch/internal/storage"
)

// emailRe is the subscription address syntax check. Intentionally permissive;
// the SMTP layer is the real arbiter.
var emailRe = regexp.MustCompile(`^[a-zA-Z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)+$`)

// Validation and authorization errors surfaced to the HTTP layer.
var (
	ErrInvalidEmail = errors.New("invalid email address")
	ErrHashMismatch = errors.New("hash does not match")
	ErrNotFound     = errors.New("subscriber not found")
)

// SubscriptionService manages email subscriptions.
type SubscriptionService interface {
	// Subscribe validates the address and upserts a subscriber record.
	Subscribe(ctx context.Context, email string) (*storage.Subscriber, error)
	// Unsubscribe deletes the subscriber record if hash matches the
	// server-computed hash for the address.
	Unsubscribe(ctx context.Context, email, hash string) error
}

// subscriptionServiceImpl implements SubscriptionService.
type subscriptionServiceImpl struct {
	store  storage.SubscriberStore
	secret []byte
}

// NewSubscriptionService creates a SubscriptionService. secret keys the
// per-record unsubscription hash.
func NewSubscriptionService(store storage.SubscriberStore, secret string) SubscriptionService {
	return &subscriptionServiceImpl{store: store, secret: []byte(secret)}
}

// hashFor computes the keyed hash authorizing unsubscription for an address.
func (s *subscriptionServiceImpl) hashFor(email string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(email))
	return hex.EncodeToString(mac.Sum(nil))
}

// Subscribe validates the address and upserts a subscriber record keyed by it.
func (s *subscriptionServiceImpl) Subscribe(ctx context.Context, email string) (*storage.Subscriber, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !emailRe.MatchString(email) {
		return nil, ErrInvalidEmail
	}

	sub := storage.Subscriber{
		ID:        uuid.NewString(),
		Email:     email,
		Hash:      s.hashFor(email),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.Upsert(ctx, sub); err != nil {
		return nil, fmt.Errorf("saving subscriber: %w", err)
	}
	return &sub, nil
}

// Unsubscribe deletes the subscriber after verifying the hash in constant time.
func (s *subscriptionServiceImpl) Unsubscribe(ctx context.Context, email, hash string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || hash == "" {
		return ErrInvalidEmail
	}

	if !hmac.Equal([]byte(s.hashFor(email)), []byte(hash)) {
		return ErrHashMismatch
	}

	sub, err := s.store.Get(ctx, email)
	if err != nil {
		return fmt.Errorf("loading subscriber: %w", err)
	}
	if sub == nil {
		return ErrNotFound
	}

	if err := s.store.Delete(ctx, email); err != nil {
		return fmt.Errorf("deleting subscriber: %w", err)
	}
	return nil
}
