// Package feed carries change notifications from writers to read-side subscribers.
package feed

import (
	"context"

	"github.com/and161185/cadetcorps/internal/model"
)

// Publisher announces that a collection changed.
type Publisher interface {
	Publish(ctx context.Context, c model.Change) error
}

// Subscriber delivers published changes until ctx is done or cancel is called.
// The returned channel is closed when the subscription ends.
type Subscriber interface {
	Subscribe(ctx context.Context) (<-chan model.Change, func(), error)
}

// Feed is both ends of a change feed.
type Feed interface {
	Publisher
	Subscriber
}

// subscriberBuffer bounds how far a slow subscriber may lag before changes are dropped for it.
const subscriberBuffer = 64

type discard struct{}

func (discard) Publish(context.Context, model.Change) error { return nil }

// Discard is a Publisher that drops every change.
var Discard Publisher = discard{}
