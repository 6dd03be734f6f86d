package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/cadetcorps/internal/errs"
	"github.com/and161185/cadetcorps/internal/model"
	"github.com/and161185/cadetcorps/internal/notify"
	"github.com/and161185/cadetcorps/internal/repository"
)

// Session listing bounds.
const (
	DefaultSessionLimit = 50
	MaxSessionLimit     = 500
)

// LedgerService records attendance sessions and keeps point totals consistent with them.
type LedgerService interface {
	// CreateSession validates input, then atomically stores the session, one log entry per
	// attendee and the attendees' point credits.
	CreateSession(ctx context.Context, in model.NewSession, actor uuid.UUID) (*model.SessionRecord, error)
	// DeleteSession atomically removes a session and reverses its point grants.
	DeleteSession(ctx context.Context, id uuid.UUID) (*model.SessionRecord, error)
	GetSession(ctx context.Context, id uuid.UUID) (*model.SessionRecord, error)
	ListSessions(ctx context.Context, limit int) ([]model.SessionRecord, error)
	// AttendancePercentage returns round(100*attended/total) in [0,100]; 0 when no sessions exist.
	AttendancePercentage(ctx context.Context, uid uuid.UUID) (int, error)
	// PointsByCategory sums the cadet's points per recognised session kind.
	PointsByCategory(ctx context.Context, uid uuid.UUID) (map[model.SessionKind]int64, error)
	// History returns the sessions the cadet attended, newest first.
	History(ctx context.Context, uid uuid.UUID) ([]model.SessionRecord, error)
	// Summary combines attendance counts, percentage and points.
	Summary(ctx context.Context, uid uuid.UUID) (*model.AttendanceSummary, error)
}

type LedgerServiceImpl struct {
	repo  repository.LedgerRepository
	users repository.UserRepository
	effects
}

// NewLedgerService constructs LedgerService. users is read-only here; it supplies point totals for summaries.
func NewLedgerService(repo repository.LedgerRepository, users repository.UserRepository, opts ...Option) *LedgerServiceImpl {
	return &LedgerServiceImpl{repo: repo, users: users, effects: newEffects(opts)}
}

// CreateSession implements LedgerService. Invalid input never reaches the store.
func (s *LedgerServiceImpl) CreateSession(ctx context.Context, in model.NewSession, actor uuid.UUID) (*model.SessionRecord, error) {
	in.Date = strings.TrimSpace(in.Date)
	in.Label = strings.TrimSpace(in.Label)
	if in.Kind == "" {
		in.Kind = model.KindCustom
	}
	in.Attendees = uniqueIDs(in.Attendees)

	if err := s.val.Struct(in); err != nil {
		return nil, err
	}
	if actor == uuid.Nil {
		return nil, errs.Invalidf("actor is required")
	}
	for _, uid := range in.Attendees {
		if uid == uuid.Nil {
			return nil, errs.Invalidf("attendees: nil id")
		}
	}

	sid, err := newID()
	if err != nil {
		return nil, err
	}
	rec := &model.SessionRecord{
		ID:            sid,
		Date:          in.Date,
		Label:         in.Label,
		Kind:          in.Kind,
		PointValue:    in.PointValue,
		PresentCadets: in.Attendees,
		TotalPresent:  len(in.Attendees),
		TotalEligible: in.EligibleCount,
		CreatedBy:     actor,
	}
	reason := fmt.Sprintf("%s on %s", rec.Label, rec.Date)
	logs := make([]model.PointLogEntry, 0, len(in.Attendees))
	for _, uid := range in.Attendees {
		lid, err := newID()
		if err != nil {
			return nil, err
		}
		logs = append(logs, model.PointLogEntry{
			ID:        lid,
			UserID:    uid,
			Points:    rec.PointValue,
			SessionID: rec.ID,
			Reason:    reason,
			Kind:      rec.Kind,
		})
	}

	if err := s.repo.CreateSession(ctx, rec, logs); err != nil {
		return nil, storeErr(err)
	}
	s.log.Info("session recorded",
		zap.String("session_id", rec.ID.String()),
		zap.String("date", rec.Date),
		zap.String("label", rec.Label),
		zap.Int("present", rec.TotalPresent),
		zap.Int64("points", rec.PointValue))

	s.changed(ctx, model.CollectionSessions, model.OpCreated, rec.ID)
	s.changed(ctx, model.CollectionUsers, model.OpUpdated, uuid.Nil)
	s.notify(ctx, notify.Event{
		Kind:       notify.SessionRecorded,
		Subject:    rec.ID,
		Recipients: rec.PresentCadets,
		Title:      reason,
		Body:       fmt.Sprintf("+%d points", rec.PointValue),
	})
	return rec, nil
}

// DeleteSession implements LedgerService.
func (s *LedgerServiceImpl) DeleteSession(ctx context.Context, id uuid.UUID) (*model.SessionRecord, error) {
	if id == uuid.Nil {
		return nil, errs.Invalidf("session id is required")
	}
	rec, err := s.repo.DeleteSession(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}
	s.log.Info("session reversed",
		zap.String("session_id", rec.ID.String()),
		zap.Int("present", len(rec.PresentCadets)),
		zap.Int64("points", rec.PointValue))

	s.changed(ctx, model.CollectionSessions, model.OpDeleted, rec.ID)
	s.changed(ctx, model.CollectionUsers, model.OpUpdated, uuid.Nil)
	s.notify(ctx, notify.Event{
		Kind:       notify.SessionDeleted,
		Subject:    rec.ID,
		Recipients: rec.PresentCadets,
		Title:      fmt.Sprintf("%s on %s was removed", rec.Label, rec.Date),
	})
	return rec, nil
}

// GetSession implements LedgerService.
func (s *LedgerServiceImpl) GetSession(ctx context.Context, id uuid.UUID) (*model.SessionRecord, error) {
	rec, err := s.repo.GetSession(ctx, id)
	return rec, storeErr(err)
}

// ListSessions implements LedgerService. limit is clamped to [1, MaxSessionLimit].
func (s *LedgerServiceImpl) ListSessions(ctx context.Context, limit int) ([]model.SessionRecord, error) {
	switch {
	case limit <= 0:
		limit = DefaultSessionLimit
	case limit > MaxSessionLimit:
		limit = MaxSessionLimit
	}
	out, err := s.repo.ListSessions(ctx, limit)
	return out, storeErr(err)
}

// AttendancePercentage implements LedgerService.
func (s *LedgerServiceImpl) AttendancePercentage(ctx context.Context, uid uuid.UUID) (int, error) {
	attended, total, err := s.repo.AttendanceCounts(ctx, uid)
	if err != nil {
		return 0, storeErr(err)
	}
	return percentage(attended, total), nil
}

// PointsByCategory implements LedgerService. Kinds outside the recognised set are dropped.
func (s *LedgerServiceImpl) PointsByCategory(ctx context.Context, uid uuid.UUID) (map[model.SessionKind]int64, error) {
	sums, err := s.repo.PointsByKind(ctx, uid)
	if err != nil {
		return nil, storeErr(err)
	}
	out := make(map[model.SessionKind]int64, len(sums))
	for k, v := range sums {
		if k.Categorized() {
			out[k] = v
		}
	}
	return out, nil
}

// History implements LedgerService.
func (s *LedgerServiceImpl) History(ctx context.Context, uid uuid.UUID) ([]model.SessionRecord, error) {
	out, err := s.repo.ListAttended(ctx, uid)
	return out, storeErr(err)
}

// Summary implements LedgerService.
func (s *LedgerServiceImpl) Summary(ctx context.Context, uid uuid.UUID) (*model.AttendanceSummary, error) {
	u, err := s.users.GetByID(ctx, uid)
	if err != nil {
		return nil, storeErr(err)
	}
	attended, total, err := s.repo.AttendanceCounts(ctx, uid)
	if err != nil {
		return nil, storeErr(err)
	}
	byCat, err := s.PointsByCategory(ctx, uid)
	if err != nil {
		return nil, err
	}
	return &model.AttendanceSummary{
		UserID:      uid,
		Attended:    attended,
		Total:       total,
		Percentage:  percentage(attended, total),
		TotalPoints: u.TotalPoints,
		ByCategory:  byCat,
	}, nil
}

func percentage(attended, total int) int {
	if total <= 0 {
		return 0
	}
	p := int(math.Round(100 * float64(attended) / float64(total)))
	return max(0, min(p, 100))
}

// uniqueIDs collapses duplicates keeping first-seen order.
func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
