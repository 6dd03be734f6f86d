// Package notify queues user-facing notifications for out-of-process delivery.
package notify

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"
)

// Event kinds.
const (
	SessionRecorded    = "session.recorded"
	SessionDeleted     = "session.deleted"
	AnnouncementPosted = "announcement.posted"
	DocumentReviewed   = "document.reviewed"
	MaterialReviewed   = "material.reviewed"
	MessageSent        = "message.sent"
)

// Event is one notification. Recipients empty means everyone.
type Event struct {
	Kind       string      `json:"kind"`
	Subject    uuid.UUID   `json:"subject"`
	Recipients []uuid.UUID `json:"recipients,omitempty"`
	Title      string      `json:"title"`
	Body       string      `json:"body,omitempty"`
	At         time.Time   `json:"at"`
}

// Notifier delivers events. Callers treat failures as non-fatal.
type Notifier interface {
	Notify(ctx context.Context, e Event) error
}

// Nop drops every event.
type Nop struct{}

// Notify implements Notifier.
func (Nop) Notify(context.Context, Event) error { return nil }
