// Package notify provides an abstraction for alert delivery channels
// (Telegram broadcast, Twitter post, SMTP email).
package notify

import "context"

// Message is the content to be delivered by a Provider.
type Message struct {
	Subject  string
	Body     string
	HTMLBody string
	To       []string
}

// Provider is the interface for alert delivery backends.
type Provider interface {
	// Name returns the provider identifier (e.g. "telegram").
	Name() string
	// Send delivers the message using the provider's transport.
	Send(ctx context.Context, msg Message) error
}
