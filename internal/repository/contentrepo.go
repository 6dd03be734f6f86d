package repository

import (
	"context"

	"github.com/and161185/cadetcorps/internal/model"
	"github.com/gofrs/uuid/v5"
)

// AnnouncementRepository stores announcements with tombstone deletion.
type AnnouncementRepository interface {
	Create(ctx context.Context, a *model.Announcement) error
	// List returns non-deleted announcements, newest first.
	List(ctx context.Context) ([]model.Announcement, error)
	// SoftDelete marks an announcement deleted.
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

// DocumentRepository stores cadet documents with tombstone deletion.
type DocumentRepository interface {
	Create(ctx context.Context, d *model.Document) error
	Get(ctx context.Context, id uuid.UUID) (*model.Document, error)
	// ListByUser returns the user's non-deleted documents, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Document, error)
	// List returns non-deleted documents, optionally filtered by status, newest first.
	List(ctx context.Context, status model.ReviewStatus) ([]model.Document, error)
	// Resubmit replaces the link fields and resets the status to pending.
	Resubmit(ctx context.Context, id uuid.UUID, fileName, docType, fileURL string) error
	// SetReview stores a review decision.
	SetReview(ctx context.Context, d *model.Document) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

// MaterialRepository stores study materials with hard deletion.
type MaterialRepository interface {
	Create(ctx context.Context, m *model.Material) error
	Get(ctx context.Context, id uuid.UUID) (*model.Material, error)
	// List returns materials, optionally filtered by status, newest first.
	List(ctx context.Context, status model.ReviewStatus) ([]model.Material, error)
	SetReview(ctx context.Context, id uuid.UUID, status model.ReviewStatus, reason string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// MessageRepository stores admin-cadet threads.
type MessageRepository interface {
	// Append inserts the message and updates the room summary in one transaction.
	Append(ctx context.Context, m *model.ChatMessage) error
	// Thread returns a cadet's messages, oldest first.
	Thread(ctx context.Context, cadetID uuid.UUID) ([]model.ChatMessage, error)
	// Rooms returns all rooms, most recently updated first.
	Rooms(ctx context.Context) ([]model.ChatRoom, error)
	// MarkRead clears the unread flag of one side of a room.
	MarkRead(ctx context.Context, cadetID uuid.UUID, reader model.Role) error
}
