package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// ReviewStatus is the approval state of submitted documents and materials.
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
)

// DocTypeOther may have any number of approved documents per cadet.
const DocTypeOther = "Other"

// Announcement is a unit-wide notice. Deletion is a tombstone.
type Announcement struct {
	ID          uuid.UUID
	Title       string
	Description string
	Link        string
	CreatedBy   uuid.UUID
	CreatedAt   time.Time
	Deleted     bool
}

// Document is a cadet's paperwork link going through admin approval. Deletion is a tombstone.
type Document struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	FileName        string
	Type            string
	FileURL         string
	Status          ReviewStatus
	RejectionReason string
	UploadedBy      uuid.UUID
	UploadedAt      time.Time
	ReviewedBy      uuid.UUID // uuid.Nil while pending
	ReviewedAt      time.Time
	Deleted         bool
}

// Material is shared study material. Deletion is a hard delete.
type Material struct {
	ID              uuid.UUID
	Title           string
	Type            string
	Link            string
	Status          ReviewStatus
	RejectionReason string
	CreatedBy       uuid.UUID
	CreatedAt       time.Time
}

// ChatRoom is the single admin-cadet conversation of one cadet.
type ChatRoom struct {
	CadetID       uuid.UUID
	LastMessage   string
	LastUpdated   time.Time
	UnreadByAdmin bool
	UnreadByCadet bool
}

// ChatMessage is one message in a cadet's thread.
type ChatMessage struct {
	ID         uuid.UUID
	CadetID    uuid.UUID
	SenderID   uuid.UUID
	SenderRole Role
	Text       string
	CreatedAt  time.Time
}

// Collections published on the change feed.
const (
	CollectionUsers         = "users"
	CollectionSessions      = "sessions"
	CollectionAnnouncements = "announcements"
	CollectionDocuments     = "documents"
	CollectionMaterials     = "materials"
	CollectionMessages      = "messages"
)

// ChangeOp is the kind of mutation a Change describes.
type ChangeOp string

const (
	OpCreated ChangeOp = "created"
	OpUpdated ChangeOp = "updated"
	OpDeleted ChangeOp = "deleted"
)

// Change notifies read-side views that a collection changed. ID is uuid.Nil when
// several records of the collection changed at once.
type Change struct {
	Collection string    `json:"collection"`
	Op         ChangeOp  `json:"op"`
	ID         uuid.UUID `json:"id"`
	At         time.Time `json:"at"`
}

// NewAnnouncement is the input of posting an announcement.
type NewAnnouncement struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"required"`
	Link        string `json:"link"`
}

// DocumentInput is the input of submitting or resubmitting a document.
type DocumentInput struct {
	UserID   uuid.UUID `json:"user_id"`
	FileName string    `json:"file_name" validate:"required"`
	Type     string    `json:"doc_type" validate:"required"`
	Link     string    `json:"link" validate:"required"`
}

// MaterialInput is the input of adding study material.
type MaterialInput struct {
	Title string `json:"title" validate:"required,max=200"`
	Type  string `json:"material_type" validate:"required"`
	Link  string `json:"link" validate:"required"`
}
