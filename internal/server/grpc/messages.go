package grpcserver

import (
	"context"

	"github.com/and161185/cadetcorps/internal/api"
	"github.com/and161185/cadetcorps/internal/convert"
)

func (s *Server) SendMessage(ctx context.Context, req *api.SendMessageRequest) (*api.ChatMessage, error) {
	c, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	cid, err := convert.ParseOptionalID("cadet_id", req.CadetID)
	if err != nil {
		return nil, toStatus(err)
	}
	m, err := s.svc.Messages.Send(ctx, c, cid, req.Text)
	if err != nil {
		return nil, s.fail("send message", err)
	}
	out := convert.ToChatMessage(*m)
	return &out, nil
}

func (s *Server) ListThread(ctx context.Context, req *api.ThreadRequest) (*api.ThreadResponse, error) {
	c, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	cid, err := convert.ParseOptionalID("cadet_id", req.CadetID)
	if err != nil {
		return nil, toStatus(err)
	}
	out, err := s.svc.Messages.Thread(ctx, c, cid)
	if err != nil {
		return nil, s.fail("list thread", err)
	}
	return &api.ThreadResponse{Messages: convert.ToChatMessages(out)}, nil
}

// ListRooms returns every cadet room, most recent first. Admin only.
func (s *Server) ListRooms(ctx context.Context, _ *api.Empty) (*api.RoomsResponse, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	out, err := s.svc.Messages.Rooms(ctx)
	if err != nil {
		return nil, s.fail("list rooms", err)
	}
	return &api.RoomsResponse{Rooms: convert.ToChatRooms(out)}, nil
}

func (s *Server) MarkRead(ctx context.Context, req *api.ThreadRequest) (*api.Empty, error) {
	c, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	cid, err := convert.ParseOptionalID("cadet_id", req.CadetID)
	if err != nil {
		return nil, toStatus(err)
	}
	if err := s.svc.Messages.MarkRead(ctx, c, cid); err != nil {
		return nil, s.fail("mark read", err)
	}
	return &api.Empty{}, nil
}
