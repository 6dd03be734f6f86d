package grpcserver

import (
	"context"

	"github.com/and161185/cadetcorps/internal/api"
	"github.com/and161185/cadetcorps/internal/convert"
)

// CreateSession records attendance. The eligible count is snapshotted from active cadets. Admin only.
func (s *Server) CreateSession(ctx context.Context, req *api.CreateSessionRequest) (*api.Session, error) {
	c, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	in, err := convert.FromCreateSession(req)
	if err != nil {
		return nil, toStatus(err)
	}
	if in.EligibleCount, err = s.svc.Members.ActiveCadetCount(ctx); err != nil {
		return nil, s.fail("count cadets", err)
	}
	rec, err := s.svc.Ledger.CreateSession(ctx, in, c.ID)
	if err != nil {
		return nil, s.fail("create session", err)
	}
	out := convert.ToSession(*rec)
	return &out, nil
}

// DeleteSession removes a session and reverses its points. Admin only.
func (s *Server) DeleteSession(ctx context.Context, req *api.IDRequest) (*api.Session, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	id, err := convert.ParseID("id", req.ID)
	if err != nil {
		return nil, toStatus(err)
	}
	rec, err := s.svc.Ledger.DeleteSession(ctx, id)
	if err != nil {
		return nil, s.fail("delete session", err)
	}
	out := convert.ToSession(*rec)
	return &out, nil
}

func (s *Server) GetSession(ctx context.Context, req *api.IDRequest) (*api.Session, error) {
	if _, err := caller(ctx); err != nil {
		return nil, err
	}
	id, err := convert.ParseID("id", req.ID)
	if err != nil {
		return nil, toStatus(err)
	}
	rec, err := s.svc.Ledger.GetSession(ctx, id)
	if err != nil {
		return nil, s.fail("get session", err)
	}
	out := convert.ToSession(*rec)
	return &out, nil
}

func (s *Server) ListSessions(ctx context.Context, req *api.ListSessionsRequest) (*api.ListSessionsResponse, error) {
	if _, err := caller(ctx); err != nil {
		return nil, err
	}
	out, err := s.svc.Ledger.ListSessions(ctx, req.Limit)
	if err != nil {
		return nil, s.fail("list sessions", err)
	}
	return &api.ListSessionsResponse{Sessions: convert.ToSessions(out)}, nil
}

// AttendanceSummary reports attendance and points for the caller or, for admins, any cadet.
func (s *Server) AttendanceSummary(ctx context.Context, req *api.SummaryRequest) (*api.Summary, error) {
	c, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	uid, err := target(c, "user_id", req.UserID)
	if err != nil {
		return nil, err
	}
	sum, err := s.svc.Ledger.Summary(ctx, uid)
	if err != nil {
		return nil, s.fail("attendance summary", err)
	}
	out := convert.ToSummary(*sum)
	return &out, nil
}

// AttendanceHistory lists the sessions a cadet attended, newest first.
func (s *Server) AttendanceHistory(ctx context.Context, req *api.SummaryRequest) (*api.ListSessionsResponse, error) {
	c, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	uid, err := target(c, "user_id", req.UserID)
	if err != nil {
		return nil, err
	}
	out, err := s.svc.Ledger.History(ctx, uid)
	if err != nil {
		return nil, s.fail("attendance history", err)
	}
	return &api.ListSessionsResponse{Sessions: convert.ToSessions(out)}, nil
}
