package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// DateLayout is the calendar-date form used for session dates.
const DateLayout = "2006-01-02"

// SessionKind tags a session for per-category point totals.
type SessionKind string

const (
	KindNormal SessionKind = "normal"
	KindExtra  SessionKind = "extra"
	KindCamp   SessionKind = "camp"
	KindDuty   SessionKind = "duty"
	KindCustom SessionKind = "custom"
)

// Categorized reports whether points of this kind appear in category totals.
// Custom sessions count toward attendance but not toward any category.
func (k SessionKind) Categorized() bool {
	switch k {
	case KindNormal, KindExtra, KindCamp, KindDuty:
		return true
	}
	return false
}

// SessionRecord is one attendance event. Immutable after creation; deletion is a hard delete.
type SessionRecord struct {
	ID            uuid.UUID
	Date          string // YYYY-MM-DD
	Label         string
	Kind          SessionKind
	PointValue    int64
	PresentCadets []uuid.UUID
	TotalPresent  int // len(PresentCadets) at creation
	TotalEligible int // active cadet count snapshot at creation
	CreatedBy     uuid.UUID
	CreatedAt     time.Time
}

// PointLogEntry records a single point grant for one cadet in one session.
type PointLogEntry struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Points    int64
	SessionID uuid.UUID
	Reason    string
	Kind      SessionKind
	CreatedAt time.Time
}

// NewSession is the input of session creation.
type NewSession struct {
	Date          string      `json:"date" validate:"required,ymd"`
	Label         string      `json:"label" validate:"required,max=200"`
	Kind          SessionKind `json:"kind" validate:"omitempty,oneof=normal extra camp duty custom"`
	PointValue    int64       `json:"point_value" validate:"gt=0"`
	Attendees     []uuid.UUID `json:"attendees" validate:"min=1"`
	EligibleCount int         `json:"eligible_count" validate:"gte=0"`
}

// AttendanceSummary is the read-side view of a cadet's attendance.
type AttendanceSummary struct {
	UserID      uuid.UUID
	Attended    int
	Total       int
	Percentage  int
	TotalPoints int64
	ByCategory  map[SessionKind]int64
}
