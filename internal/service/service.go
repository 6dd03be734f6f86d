// Package service contains application services: the attendance ledger, accounts
// and the member-facing workflows around them.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/cadetcorps/internal/errs"
	"github.com/and161185/cadetcorps/internal/feed"
	"github.com/and161185/cadetcorps/internal/model"
	"github.com/and161185/cadetcorps/internal/notify"
	"github.com/and161185/cadetcorps/internal/validate"
)

// Option configures the side-effect sinks shared by services.
type Option func(*effects)

// WithFeed publishes committed changes to p.
func WithFeed(p feed.Publisher) Option { return func(e *effects) { e.feed = p } }

// WithNotifier queues user notifications on n.
func WithNotifier(n notify.Notifier) Option { return func(e *effects) { e.notifier = n } }

// WithLogger sets the logger used for best-effort failures.
func WithLogger(l *zap.Logger) Option { return func(e *effects) { e.log = l } }

// notifyTimeout bounds a best-effort notification so a slow broker cannot hold up the caller.
const notifyTimeout = 5 * time.Second

// effects runs post-commit work. Failures are logged and never returned to the caller.
type effects struct {
	feed     feed.Publisher
	notifier notify.Notifier
	log      *zap.Logger
	val      *validate.Validator
	now      func() time.Time
}

func newEffects(opts []Option) effects {
	e := effects{
		feed:     feed.Discard,
		notifier: notify.Nop{},
		log:      zap.NewNop(),
		val:      validate.New(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(&e)
	}
	return e
}

func (e effects) changed(ctx context.Context, collection string, op model.ChangeOp, id uuid.UUID) {
	c := model.Change{Collection: collection, Op: op, ID: id, At: e.now()}
	if err := e.feed.Publish(ctx, c); err != nil {
		e.log.Warn("change feed publish failed",
			zap.String("collection", collection), zap.String("op", string(op)),
			zap.String("id", id.String()), zap.Error(err))
	}
}

func (e effects) notify(ctx context.Context, ev notify.Event) {
	if ev.At.IsZero() {
		ev.At = e.now()
	}
	ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()
	if err := e.notifier.Notify(ctx, ev); err != nil {
		e.log.Warn("notification failed", zap.String("kind", ev.Kind), zap.Error(err))
	}
}

// domainErrors pass through store calls unchanged; anything else is a persistence failure.
var domainErrors = []error{
	errs.ErrValidation,
	errs.ErrDuplicateSession,
	errs.ErrNotFound,
	errs.ErrAlreadyExists,
	errs.ErrDuplicateDocument,
	errs.ErrForbidden,
}

func storeErr(err error) error {
	if err == nil {
		return nil
	}
	for _, d := range domainErrors {
		if errors.Is(err, d) {
			return err
		}
	}
	return fmt.Errorf("%w: %w", errs.ErrPersistence, err)
}

func newID() (uuid.UUID, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return uuid.Nil, fmt.Errorf("generate id: %w", err)
	}
	return id, nil
}
