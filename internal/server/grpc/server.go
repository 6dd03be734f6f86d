// Package grpcserver exposes the Corps gRPC API handlers.
package grpcserver

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/and161185/cadetcorps/internal/api"
	"github.com/and161185/cadetcorps/internal/errs"
	"github.com/and161185/cadetcorps/internal/feed"
	"github.com/and161185/cadetcorps/internal/model"
	"github.com/and161185/cadetcorps/internal/service"
)

// Services groups the application services the handlers delegate to.
type Services struct {
	Auth          service.AuthService
	Members       service.MemberService
	Ledger        service.LedgerService
	Announcements service.AnnouncementService
	Documents     service.DocumentService
	Materials     service.MaterialService
	Messages      service.MessageService
}

// Server wires services into gRPC handlers.
type Server struct {
	svc     Services
	changes feed.Subscriber
	log     *zap.Logger
}

var _ api.CorpsServer = (*Server)(nil)

// New constructs the handler set. changes backs WatchChanges.
func New(svc Services, changes feed.Subscriber, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{svc: svc, changes: changes, log: log}
}

// caller returns the authenticated caller placed in ctx by AuthUnary/AuthStream.
func caller(ctx context.Context) (model.Caller, error) {
	c, ok := CallerFromCtx(ctx)
	if !ok {
		return model.Caller{}, status.Error(codes.Unauthenticated, "no auth")
	}
	return c, nil
}

func requireAdmin(ctx context.Context) (model.Caller, error) {
	c, err := caller(ctx)
	if err != nil {
		return c, err
	}
	if !c.IsAdmin() {
		return c, status.Error(codes.PermissionDenied, "admin only")
	}
	return c, nil
}

// toStatus maps domain errors onto gRPC codes. Internal failures are not described to the client.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, errs.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, errs.ErrDuplicateSession),
		errors.Is(err, errs.ErrDuplicateDocument),
		errors.Is(err, errs.ErrAlreadyExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, errs.ErrNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, errs.ErrUnauthorized):
		return status.Error(codes.Unauthenticated, "bad credentials")
	case errors.Is(err, errs.ErrForbidden):
		return status.Error(codes.PermissionDenied, "forbidden")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, "internal")
	}
}

// fail logs err before it is hidden behind codes.Internal.
func (s *Server) fail(op string, err error) error {
	st := toStatus(err)
	if status.Code(st) == codes.Internal {
		s.log.Error(op, zap.Error(err))
	}
	return st
}
