package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/and161185/cadetcorps/internal/errs"
	"github.com/and161185/cadetcorps/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// LedgerRepo implements LedgerRepository using PostgreSQL.
// It is the only code in the repository that writes users.total_points.
type LedgerRepo struct{ db *DB }

// NewLedgerRepo constructs a ledger repository.
func NewLedgerRepo(db *DB) *LedgerRepo { return &LedgerRepo{db: db} }

const sessionColumns = `id, session_date, label, kind, point_value, total_present, total_eligible, created_by, created_at`

// CreateSession writes the session, its attendees and log entries, and credits every
// attendee in a single transaction. The duplicate check runs inside the same transaction
// and the unique index on (session_date, label) catches concurrent creators.
func (r *LedgerRepo) CreateSession(ctx context.Context, s *model.SessionRecord, logs []model.PointLogEntry) error {
	return r.db.withTx(ctx, func(tx pgx.Tx) error {
		const dup = `SELECT EXISTS (SELECT 1 FROM attendance_sessions WHERE session_date=$1 AND label=$2)`
		const ins = `
INSERT INTO attendance_sessions (id, session_date, label, kind, point_value, total_present, total_eligible, created_by)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING created_at`

		var exists bool
		if err := tx.QueryRow(ctx, dup, s.Date, s.Label).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return errs.ErrDuplicateSession
		}
		err := tx.QueryRow(ctx, ins,
			s.ID, s.Date, s.Label, string(s.Kind), s.PointValue, s.TotalPresent, s.TotalEligible, s.CreatedBy,
		).Scan(&s.CreatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return errs.ErrDuplicateSession
			}
			return err
		}

		const credit = `UPDATE users SET total_points = total_points + $2 WHERE id = $1 AND role = 'cadet' AND status = 'active'`
		const att = `INSERT INTO session_attendees (session_id, user_id) VALUES ($1, $2)`
		const logIns = `
INSERT INTO point_logs (id, user_id, points, session_id, reason, kind, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

		for i := range logs {
			l := &logs[i]
			tag, err := tx.Exec(ctx, credit, l.UserID, l.Points)
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 0 {
				return errs.Invalidf("attendee %s is not an active cadet", l.UserID)
			}
			if _, err := tx.Exec(ctx, att, s.ID, l.UserID); err != nil {
				return err
			}
			l.CreatedAt = s.CreatedAt
			if _, err := tx.Exec(ctx, logIns, l.ID, l.UserID, l.Points, s.ID, l.Reason, string(l.Kind), l.CreatedAt); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteSession reverses a session: attendees are debited by the session's own point value,
// then log entries and the session are removed. All in one transaction.
func (r *LedgerRepo) DeleteSession(ctx context.Context, id uuid.UUID) (*model.SessionRecord, error) {
	var out *model.SessionRecord
	err := r.db.withTx(ctx, func(tx pgx.Tx) error {
		s, err := scanSession(tx.QueryRow(ctx, `SELECT `+sessionColumns+` FROM attendance_sessions WHERE id=$1 FOR UPDATE`, id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return errs.ErrNotFound
			}
			return err
		}
		if s.PresentCadets, err = attendees(ctx, tx, id); err != nil {
			return err
		}

		const debit = `UPDATE users SET total_points = total_points - $2 WHERE id = $1`
		for _, uid := range s.PresentCadets {
			if _, err := tx.Exec(ctx, debit, uid, s.PointValue); err != nil {
				return fmt.Errorf("debit %s: %w", uid, err)
			}
		}
		if _, err := tx.Exec(ctx, `DELETE FROM point_logs WHERE session_id=$1`, id); err != nil {
			return err
		}
		// session_attendees rows go with the session (ON DELETE CASCADE)
		if _, err := tx.Exec(ctx, `DELETE FROM attendance_sessions WHERE id=$1`, id); err != nil {
			return err
		}
		out = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetSession returns a session and its attendee set.
func (r *LedgerRepo) GetSession(ctx context.Context, id uuid.UUID) (*model.SessionRecord, error) {
	s, err := scanSession(r.db.Pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM attendance_sessions WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	if s.PresentCadets, err = attendees(ctx, r.db.Pool, id); err != nil {
		return nil, err
	}
	return s, nil
}

// ListSessions returns the latest sessions, newest first.
func (r *LedgerRepo) ListSessions(ctx context.Context, limit int) ([]model.SessionRecord, error) {
	const q = `
SELECT ` + sessionColumns + `
FROM attendance_sessions
ORDER BY session_date DESC, created_at DESC
LIMIT $1`
	rows, err := r.db.Pool.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	return collectSessions(rows)
}

// ListAttended returns the sessions a user attended, newest first.
func (r *LedgerRepo) ListAttended(ctx context.Context, userID uuid.UUID) ([]model.SessionRecord, error) {
	const q = `
SELECT s.id, s.session_date, s.label, s.kind, s.point_value, s.total_present, s.total_eligible, s.created_by, s.created_at
FROM attendance_sessions s
JOIN session_attendees a ON a.session_id = s.id
WHERE a.user_id=$1
ORDER BY s.session_date DESC, s.created_at DESC`
	rows, err := r.db.Pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	return collectSessions(rows)
}

// AttendanceCounts returns attended and total session counts in one statement.
func (r *LedgerRepo) AttendanceCounts(ctx context.Context, userID uuid.UUID) (int, int, error) {
	const q = `
SELECT (SELECT count(*) FROM session_attendees WHERE user_id=$1),
       (SELECT count(*) FROM attendance_sessions)`
	var attended, total int
	if err := r.db.Pool.QueryRow(ctx, q, userID).Scan(&attended, &total); err != nil {
		return 0, 0, err
	}
	return attended, total, nil
}

// PointsByKind sums a user's logged points per session kind.
func (r *LedgerRepo) PointsByKind(ctx context.Context, userID uuid.UUID) (map[model.SessionKind]int64, error) {
	const q = `SELECT kind, COALESCE(SUM(points),0) FROM point_logs WHERE user_id=$1 GROUP BY kind`
	rows, err := r.db.Pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[model.SessionKind]int64)
	for rows.Next() {
		var (
			kind string
			sum  int64
		)
		if err := rows.Scan(&kind, &sum); err != nil {
			return nil, err
		}
		out[model.SessionKind(kind)] = sum
	}
	return out, rows.Err()
}

// LogsForSession returns the point log entries referencing a session.
func (r *LedgerRepo) LogsForSession(ctx context.Context, sessionID uuid.UUID) ([]model.PointLogEntry, error) {
	const q = `
SELECT id, user_id, points, session_id, reason, kind, created_at
FROM point_logs WHERE session_id=$1
ORDER BY created_at, id`
	rows, err := r.db.Pool.Query(ctx, q, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PointLogEntry
	for rows.Next() {
		var (
			l    model.PointLogEntry
			kind string
		)
		if err := rows.Scan(&l.ID, &l.UserID, &l.Points, &l.SessionID, &l.Reason, &kind, &l.CreatedAt); err != nil {
			return nil, err
		}
		l.Kind = model.SessionKind(kind)
		out = append(out, l)
	}
	return out, rows.Err()
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func attendees(ctx context.Context, q querier, sessionID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := q.Query(ctx, `SELECT user_id FROM session_attendees WHERE session_id=$1`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func scanSession(row pgx.Row) (*model.SessionRecord, error) {
	var (
		s    model.SessionRecord
		kind string
	)
	if err := row.Scan(&s.ID, &s.Date, &s.Label, &kind, &s.PointValue, &s.TotalPresent, &s.TotalEligible, &s.CreatedBy, &s.CreatedAt); err != nil {
		return nil, err
	}
	s.Kind = model.SessionKind(kind)
	return &s, nil
}

func collectSessions(rows pgx.Rows) ([]model.SessionRecord, error) {
	defer rows.Close()
	var out []model.SessionRecord
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}
