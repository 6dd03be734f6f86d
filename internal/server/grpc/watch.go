package grpcserver

import (
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/and161185/cadetcorps/internal/api"
	"github.com/and161185/cadetcorps/internal/convert"
)

// WatchChanges streams change notifications until the client goes away.
// Slow clients may miss notifications; they should re-read after reconnecting.
func (s *Server) WatchChanges(req *api.WatchRequest, stream api.ChangeSender) error {
	ctx := stream.Context()
	c, err := caller(ctx)
	if err != nil {
		return err
	}
	if s.changes == nil {
		return status.Error(codes.Unavailable, "change feed disabled")
	}
	want := toSet(req.Collections)

	changes, cancel, err := s.changes.Subscribe(ctx)
	if err != nil {
		return s.fail("subscribe", err)
	}
	defer cancel()
	s.log.Debug("watch started", zap.String("user_id", c.ID.String()), zap.Strings("collections", req.Collections))

	for {
		select {
		case <-ctx.Done():
			return nil
		case ch, ok := <-changes:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return status.Error(codes.Unavailable, "change feed closed")
			}
			if len(want) > 0 && !want[ch.Collection] {
				continue
			}
			if err := stream.Send(convert.ToChange(ch)); err != nil {
				return err
			}
		}
	}
}
