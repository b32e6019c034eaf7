package domain

import (
	"context"

	"github.com/google/uuid"
)

// InsertEvent is what the realtime bridge emits when a notification row is
// created for the subscribed user.
type InsertEvent struct {
	Notification Notification `json:"notification"`
}

// BridgeHandler receives events for one subscription. OnSubscriptionLost is
// called at most once per subscription, after which no further OnInsert
// calls are made until the caller resubscribes.
type BridgeHandler interface {
	OnInsert(ev InsertEvent)
	OnSubscriptionLost(err error)
}

// Subscription is a cancellable handle on a bridge channel. Unsubscribe is
// safe to call more than once.
type Subscription interface {
	Unsubscribe()
}

// Bridge is the realtime collaborator: one logical channel per user,
// insert events only. Subscribe is idempotent per user; a second call
// returns the existing subscription. The bridge is an optimization, never
// a correctness dependency: the reconciler polls regardless.
type Bridge interface {
	Subscribe(ctx context.Context, userID uuid.UUID, h BridgeHandler) (Subscription, error)
}

// Publisher is the producing side of the bridge, used by the translator
// after a successful insert.
type Publisher interface {
	PublishInsert(ctx context.Context, n *Notification) error
}

// Dispatcher schedules the on-device alert for a notification. It returns
// only after the scheduling call succeeded or failed; the caller marks the
// row sent afterwards, never before.
type Dispatcher interface {
	Dispatch(ctx context.Context, n *Notification) error
}
