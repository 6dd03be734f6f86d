package grpcserver

import (
	"context"

	"github.com/and161185/cadetcorps/internal/model"
)

type ctxKey string

const callerKey ctxKey = "corps.caller"

// WithCaller stores the authenticated caller in context.
func WithCaller(ctx context.Context, c model.Caller) context.Context {
	return context.WithValue(ctx, callerKey, c)
}

// CallerFromCtx fetches the caller from context.
func CallerFromCtx(ctx context.Context) (model.Caller, bool) {
	v := ctx.Value(callerKey)
	if v == nil {
		return model.Caller{}, false
	}
	c, ok := v.(model.Caller)
	return c, ok
}
