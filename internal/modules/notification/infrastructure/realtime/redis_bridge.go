package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/JoelKayemba/dream-market-sub000/internal/modules/notification/domain"
)

func channelFor(userID uuid.UUID) string {
	return "notifications:" + userID.String()
}

// RedisBridge carries notification insert events over Redis pub/sub, one
// channel per user. It implements both domain.Bridge (consumer side) and
// domain.Publisher (producer side).
type RedisBridge struct {
	client *redis.Client

	mu   sync.Mutex
	subs map[uuid.UUID]*subscription
}

func NewRedisBridge(client *redis.Client) *RedisBridge {
	return &RedisBridge{
		client: client,
		subs:   make(map[uuid.UUID]*subscription),
	}
}

// PublishInsert pushes a freshly created notification onto the owner's
// channel.
func (b *RedisBridge) PublishInsert(ctx context.Context, n *domain.Notification) error {
	body, err := json.Marshal(domain.InsertEvent{Notification: *n})
	if err != nil {
		return fmt.Errorf("encode insert event: %w", err)
	}
	if err := b.client.Publish(ctx, channelFor(n.UserID), body).Err(); err != nil {
		return fmt.Errorf("publish insert event: %w", err)
	}
	return nil
}

// Subscribe opens the user's channel. Calling it twice for the same user is
// a no-op returning the existing subscription.
func (b *RedisBridge) Subscribe(ctx context.Context, userID uuid.UUID, h domain.BridgeHandler) (domain.Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if sub, ok := b.subs[userID]; ok {
		return sub, nil
	}

	pubsub := b.client.Subscribe(ctx, channelFor(userID))
	// Force the SUBSCRIBE round trip so failures surface here, not in the
	// receive loop.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", channelFor(userID), err)
	}

	sub := &subscription{bridge: b, userID: userID, pubsub: pubsub, handler: h}
	b.subs[userID] = sub
	go sub.receiveLoop()
	return sub, nil
}

func (b *RedisBridge) remove(userID uuid.UUID, sub *subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs[userID] == sub {
		delete(b.subs, userID)
	}
}

type subscription struct {
	bridge  *RedisBridge
	userID  uuid.UUID
	pubsub  *redis.PubSub
	handler domain.BridgeHandler
	closed  atomic.Bool
}

func (s *subscription) receiveLoop() {
	for msg := range s.pubsub.Channel() {
		var ev domain.InsertEvent
		if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
			log.Printf("[Realtime] bad insert event on %s: %v", msg.Channel, err)
			continue
		}
		s.handler.OnInsert(ev)
	}
	// The channel closed. If we did not close it ourselves the
	// subscription was lost; tell the handler so it can refresh and
	// resubscribe.
	if !s.closed.Load() {
		s.bridge.remove(s.userID, s)
		s.handler.OnSubscriptionLost(domain.ErrSubscriptionLost)
	}
}

// Unsubscribe releases the channel. Safe to call on an already-released
// handle.
func (s *subscription) Unsubscribe() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	s.bridge.remove(s.userID, s)
	if err := s.pubsub.Close(); err != nil {
		log.Printf("[Realtime] close subscription for %s: %v", s.userID, err)
	}
}
