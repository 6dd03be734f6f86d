package grpcserver

import (
	"context"

	"github.com/gofrs/uuid/v5"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/and161185/cadetcorps/internal/api"
	"github.com/and161185/cadetcorps/internal/convert"
	"github.com/and161185/cadetcorps/internal/model"
)

// --- Auth ---

// Login authenticates by email and password and returns an access token.
func (s *Server) Login(ctx context.Context, req *api.LoginRequest) (*api.LoginResponse, error) {
	if req.Email == "" || req.Password == "" {
		return nil, status.Error(codes.InvalidArgument, "empty email/password")
	}
	tok, u, err := s.svc.Auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		return nil, s.fail("login", err)
	}
	return &api.LoginResponse{
		AccessToken: tok.AccessToken,
		ExpiresAt:   tok.ExpiresAt,
		Member:      convert.ToMember(u),
	}, nil
}

// ChangePassword replaces the caller's password.
func (s *Server) ChangePassword(ctx context.Context, req *api.ChangePasswordRequest) (*api.Empty, error) {
	c, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.svc.Auth.ChangePassword(ctx, c.ID, req.OldPassword, req.NewPassword); err != nil {
		return nil, s.fail("change password", err)
	}
	return &api.Empty{}, nil
}

// Provision creates a member account. Admin only.
func (s *Server) Provision(ctx context.Context, req *api.ProvisionRequest) (*api.Member, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	in, password := convert.FromProvision(req)
	u, err := s.svc.Auth.Provision(ctx, in, password)
	if err != nil {
		return nil, s.fail("provision", err)
	}
	m := convert.ToMember(*u)
	return &m, nil
}

// --- Members ---

// target resolves an optional member id. Cadets may only address themselves.
func target(c model.Caller, field, raw string) (uuid.UUID, error) {
	id, err := convert.ParseOptionalID(field, raw)
	if err != nil {
		return uuid.Nil, toStatus(err)
	}
	if id == uuid.Nil {
		return c.ID, nil
	}
	if id != c.ID && !c.IsAdmin() {
		return uuid.Nil, status.Error(codes.PermissionDenied, "forbidden")
	}
	return id, nil
}

func (s *Server) GetMember(ctx context.Context, req *api.IDRequest) (*api.Member, error) {
	c, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	id, err := target(c, "id", req.ID)
	if err != nil {
		return nil, err
	}
	u, err := s.svc.Members.Get(ctx, id)
	if err != nil {
		return nil, s.fail("get member", err)
	}
	m := convert.ToMember(*u)
	return &m, nil
}

// ListMembers lists members filtered by role and status. Admin only.
func (s *Server) ListMembers(ctx context.Context, req *api.ListMembersRequest) (*api.ListMembersResponse, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	out, err := s.svc.Members.List(ctx, model.Role(req.Role), model.Status(req.Status))
	if err != nil {
		return nil, s.fail("list members", err)
	}
	return &api.ListMembersResponse{Members: convert.ToMembers(out)}, nil
}

// UpdateMember replaces a profile. Cadets edit their own profile but cannot change their rank.
func (s *Server) UpdateMember(ctx context.Context, req *api.UpdateMemberRequest) (*api.Empty, error) {
	c, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	id, err := target(c, "id", req.ID)
	if err != nil {
		return nil, err
	}
	p := convert.FromUpdateMember(req)
	if !c.IsAdmin() {
		cur, err := s.svc.Members.Get(ctx, id)
		if err != nil {
			return nil, s.fail("update member", err)
		}
		p.Rank = cur.Rank
	}
	if err := s.svc.Members.UpdateProfile(ctx, id, p); err != nil {
		return nil, s.fail("update member", err)
	}
	return &api.Empty{}, nil
}

// SetMemberStatus moves a member between active and alumni. Admin only.
func (s *Server) SetMemberStatus(ctx context.Context, req *api.SetMemberStatusRequest) (*api.Empty, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	id, err := convert.ParseID("id", req.ID)
	if err != nil {
		return nil, toStatus(err)
	}
	if err := s.svc.Members.SetStatus(ctx, id, model.Status(req.Status)); err != nil {
		return nil, s.fail("set member status", err)
	}
	return &api.Empty{}, nil
}

func (s *Server) Leaderboard(ctx context.Context, _ *api.Empty) (*api.ListMembersResponse, error) {
	if _, err := caller(ctx); err != nil {
		return nil, err
	}
	out, err := s.svc.Members.Leaderboard(ctx)
	if err != nil {
		return nil, s.fail("leaderboard", err)
	}
	return &api.ListMembersResponse{Members: convert.ToMembers(out)}, nil
}
