package repository

import (
	"context"

	"github.com/and161185/cadetcorps/internal/model"
	"github.com/gofrs/uuid/v5"
)

// LedgerRepository stores attendance sessions, point logs and the users' point totals.
// It is the only writer of User.TotalPoints.
type LedgerRepository interface {
	// CreateSession atomically inserts the session and its log entries and credits every
	// attendee. It fails with errs.ErrDuplicateSession if (date, label) is taken.
	CreateSession(ctx context.Context, s *model.SessionRecord, logs []model.PointLogEntry) error

	// DeleteSession atomically removes the session and its log entries and debits the
	// session's point value from every attendee. Returns the deleted session.
	DeleteSession(ctx context.Context, id uuid.UUID) (*model.SessionRecord, error)

	// GetSession returns a session with its attendee set.
	GetSession(ctx context.Context, id uuid.UUID) (*model.SessionRecord, error)

	// ListSessions returns the latest sessions, newest first, without attendee sets.
	ListSessions(ctx context.Context, limit int) ([]model.SessionRecord, error)

	// ListAttended returns sessions the user attended, newest first.
	ListAttended(ctx context.Context, userID uuid.UUID) ([]model.SessionRecord, error)

	// AttendanceCounts returns how many sessions the user attended and how many exist.
	AttendanceCounts(ctx context.Context, userID uuid.UUID) (attended, total int, err error)

	// PointsByKind sums the user's logged points per session kind.
	PointsByKind(ctx context.Context, userID uuid.UUID) (map[model.SessionKind]int64, error)

	// LogsForSession returns the point log entries referencing a session.
	LogsForSession(ctx context.Context, sessionID uuid.UUID) ([]model.PointLogEntry, error)
}
