package grpcserver

import (
	"context"
	"errors"
	"runtime/debug"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"github.com/and161185/cadetcorps/internal/api"
	"github.com/and161185/cadetcorps/internal/model"
	"github.com/and161185/cadetcorps/internal/service"
)

// PublicMethods can be called without a bearer token.
var PublicMethods = []string{api.FullMethod("Login")}

func remotePeer(ctx context.Context) string {
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		return p.Addr.String()
	}
	return ""
}

// LoggingUnary returns a unary server interceptor for structured logging.
func LoggingUnary(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := next(ctx, req)

		// metadata only, never payloads
		log.Info("grpc",
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("dur", time.Since(start)),
			zap.String("peer", remotePeer(ctx)),
		)
		return resp, err
	}
}

// LoggingStream logs stream lifetime and final status.
func LoggingStream(log *zap.Logger) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, next grpc.StreamHandler) error {
		start := time.Now()
		err := next(srv, ss)
		log.Info("grpc stream",
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("dur", time.Since(start)),
			zap.String("peer", remotePeer(ss.Context())),
		)
		return err
	}
}

// RecoverUnary returns a unary server interceptor that recovers from panics.
func RecoverUnary(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic",
					zap.Any("reason", r),
					zap.ByteString("stack", debug.Stack()),
					zap.String("method", info.FullMethod),
				)
				err = status.Error(codes.Internal, "internal")
			}
		}()
		return next(ctx, req)
	}
}

// RecoverStream is RecoverUnary for streaming handlers.
func RecoverStream(log *zap.Logger) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, next grpc.StreamHandler) (err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic",
					zap.Any("reason", r),
					zap.ByteString("stack", debug.Stack()),
					zap.String("method", info.FullMethod),
				)
				err = status.Error(codes.Internal, "internal")
			}
		}()
		return next(srv, ss)
	}
}

// guarded reports whether method belongs to the Corps service and is not public.
func guarded(method string, public map[string]bool) bool {
	return strings.HasPrefix(method, "/"+api.ServiceName+"/") && !public[method]
}

func toSet(methods []string) map[string]bool {
	m := make(map[string]bool, len(methods))
	for _, s := range methods {
		m[s] = true
	}
	return m
}

// AuthUnary verifies the bearer token of every guarded call and stores the caller in context.
// Methods of other services (health, reflection) pass through.
func AuthUnary(signKey []byte, public ...string) grpc.UnaryServerInterceptor {
	pub := toSet(public)
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		if !guarded(info.FullMethod, pub) {
			return next(ctx, req)
		}
		c, err := authenticate(ctx, signKey)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, err.Error())
		}
		return next(WithCaller(ctx, c), req)
	}
}

type authedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *authedStream) Context() context.Context { return s.ctx }

// AuthStream is AuthUnary for streaming calls.
func AuthStream(signKey []byte, public ...string) grpc.StreamServerInterceptor {
	pub := toSet(public)
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, next grpc.StreamHandler) error {
		if !guarded(info.FullMethod, pub) {
			return next(srv, ss)
		}
		c, err := authenticate(ss.Context(), signKey)
		if err != nil {
			return status.Error(codes.Unauthenticated, err.Error())
		}
		return next(srv, &authedStream{ServerStream: ss, ctx: WithCaller(ss.Context(), c)})
	}
}

// ServerOptions chains recovery, logging and authentication in that order.
func ServerOptions(log *zap.Logger, signKey []byte) []grpc.ServerOption {
	return []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(RecoverUnary(log), LoggingUnary(log), AuthUnary(signKey, PublicMethods...)),
		grpc.ChainStreamInterceptor(RecoverStream(log), LoggingStream(log), AuthStream(signKey, PublicMethods...)),
	}
}

// authenticate extracts "authorization: Bearer <JWT>" and verifies it.
func authenticate(ctx context.Context, signKey []byte) (model.Caller, error) {
	tok, err := bearerTokenFromMD(ctx)
	if err != nil {
		return model.Caller{}, err
	}
	c, err := service.ParseAccessToken(signKey, tok)
	if err != nil {
		return model.Caller{}, errors.New("invalid token")
	}
	return c, nil
}

func bearerTokenFromMD(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", errors.New("no metadata")
	}
	for _, v := range md.Get("authorization") {
		v = strings.TrimSpace(v)
		if len(v) >= 7 && strings.EqualFold(v[:7], "bearer ") {
			t := strings.TrimSpace(v[7:])
			if t != "" {
				return t, nil
			}
		}
	}
	return "", errors.New("no bearer token")
}
