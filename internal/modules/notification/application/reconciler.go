package application

import (
	"context"
	"log"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/JoelKayemba/dream-market-sub000/internal/modules/notification/domain"
)

// Reconciler maintains the authoritative in-memory view of one session's
// notifications. It merges realtime pushes and periodic full refreshes,
// hands unsent rows to the dispatcher, and reconciles read state with the
// store. One instance per connected session.
type Reconciler struct {
	userID     uuid.UUID
	role       domain.Role
	repo       domain.NotificationRepository
	dispatcher domain.Dispatcher
	bridge     domain.Bridge
	pollEvery  time.Duration

	mu        sync.Mutex
	snapshot  []domain.Notification
	lastCheck time.Time

	active   atomic.Bool
	sweeping atomic.Bool

	sub    domain.Subscription
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewReconciler(userID uuid.UUID, role domain.Role, repo domain.NotificationRepository, dispatcher domain.Dispatcher, bridge domain.Bridge, pollEvery time.Duration) *Reconciler {
	if pollEvery <= 0 {
		pollEvery = 30 * time.Second
	}
	return &Reconciler{
		userID:     userID,
		role:       role,
		repo:       repo,
		dispatcher: dispatcher,
		bridge:     bridge,
		pollEvery:  pollEvery,
	}
}

// Start performs the initial refresh, subscribes to the bridge, and begins
// the polling fallback loop. The bridge is an optimization: the ticker
// refresh runs unconditionally whether or not pushes arrive.
func (r *Reconciler) Start(ctx context.Context) error {
	r.active.Store(true)

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	if r.bridge != nil {
		sub, err := r.bridge.Subscribe(ctx, r.userID, r)
		if err != nil {
			log.Printf("[Reconciler] subscribe failed for %s, polling only: %v", r.userID, err)
		} else {
			r.mu.Lock()
			r.sub = sub
			r.mu.Unlock()
		}
	}

	if err := r.Refresh(ctx); err != nil {
		log.Printf("[Reconciler] initial refresh for %s: %v", r.userID, err)
	}

	r.wg.Add(1)
	go r.pollLoop(ctx)
	return nil
}

// Stop deactivates the session. In-flight refreshes that complete after
// Stop discard their results; Unsubscribe is safe during an in-flight
// refresh.
func (r *Reconciler) Stop() {
	r.active.Store(false)
	r.mu.Lock()
	sub := r.sub
	r.sub = nil
	r.mu.Unlock()
	if sub != nil {
		sub.Unsubscribe()
	}
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
}

func (r *Reconciler) pollLoop(ctx context.Context) {
	defer r.wg.Done()
	ticker := time.NewTicker(r.pollEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// A failed background refresh is silent; the next tick is the
			// retry.
			if err := r.Refresh(ctx); err != nil {
				log.Printf("[Reconciler] refresh for %s: %v", r.userID, err)
			}
		}
	}
}

// Refresh pulls the full role-filtered list, replaces the snapshot
// wholesale, and runs the unsent sweep. Overlapping refreshes are safe:
// each replacement is a consistent server read, so the last write wins.
func (r *Reconciler) Refresh(ctx context.Context) error {
	list, err := r.repo.ListByUser(ctx, r.userID, domain.FilterForRole(r.role))
	if err != nil {
		return err
	}
	if !r.active.Load() {
		return nil
	}

	r.mu.Lock()
	r.snapshot = list
	r.lastCheck = time.Now()
	r.mu.Unlock()

	r.sweep(ctx)
	return nil
}

// OnInsert implements domain.BridgeHandler. A push for the wrong family is
// silently discarded; a matching one triggers a full refresh rather than
// splicing the row in, trading a little bandwidth for ordering safety.
func (r *Reconciler) OnInsert(ev domain.InsertEvent) {
	if !r.active.Load() {
		return
	}
	if !ev.Notification.VisibleTo(r.role) {
		return
	}
	if err := r.Refresh(context.Background()); err != nil {
		log.Printf("[Reconciler] push refresh for %s: %v", r.userID, err)
	}
}

// OnSubscriptionLost implements domain.BridgeHandler: immediate fallback
// refresh plus a resubscription attempt. Never user-visible.
func (r *Reconciler) OnSubscriptionLost(err error) {
	if !r.active.Load() {
		return
	}
	log.Printf("[Reconciler] subscription lost for %s: %v", r.userID, err)

	ctx := context.Background()
	if err := r.Refresh(ctx); err != nil {
		log.Printf("[Reconciler] fallback refresh for %s: %v", r.userID, err)
	}
	if r.bridge != nil {
		if sub, serr := r.bridge.Subscribe(ctx, r.userID, r); serr == nil {
			// The session may have stopped while the resubscribe was in
			// flight; adopting the subscription then would leak it.
			r.mu.Lock()
			if r.active.Load() {
				r.sub = sub
				r.mu.Unlock()
			} else {
				r.mu.Unlock()
				sub.Unsubscribe()
			}
		}
	}
}

// sweep dispatches unsent rows oldest-first and marks each sent only after
// its alert was scheduled. The CompareAndSwap is the single-flight guard:
// a second sweep while one is in flight is dropped, not queued — the next
// refresh re-evaluates whatever remains unsent.
func (r *Reconciler) sweep(ctx context.Context) {
	if !r.sweeping.CompareAndSwap(false, true) {
		return
	}
	defer r.sweeping.Store(false)

	r.mu.Lock()
	unsent := make([]domain.Notification, 0)
	for _, n := range r.snapshot {
		if !n.IsSent && n.VisibleTo(r.role) {
			unsent = append(unsent, n)
		}
	}
	r.mu.Unlock()

	sort.Slice(unsent, func(i, j int) bool {
		return unsent[i].CreatedAt.Before(unsent[j].CreatedAt)
	})

	for i := range unsent {
		n := unsent[i]
		if !r.active.Load() {
			return
		}
		if err := r.dispatcher.Dispatch(ctx, &n); err != nil {
			dispatchFailures.Inc()
			log.Printf("[Reconciler] dispatch %s: %v", n.ID, err)
			continue
		}
		dispatches.Inc()
		if err := r.repo.MarkSent(ctx, n.ID); err != nil {
			log.Printf("[Reconciler] mark sent %s: %v", n.ID, err)
			continue
		}
		r.markSentLocal(n.ID)
	}
}

func (r *Reconciler) markSentLocal(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.snapshot {
		if r.snapshot[i].ID == id {
			now := time.Now()
			r.snapshot[i].IsSent = true
			r.snapshot[i].SentAt = &now
			return
		}
	}
}

// MarkRead applies the optimistic local update first; a store failure does
// not roll it back. Read state is allowed to run locally ahead of the
// server, the next refresh reconciles it.
func (r *Reconciler) MarkRead(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	for i := range r.snapshot {
		if r.snapshot[i].ID == id && !r.snapshot[i].IsRead {
			now := time.Now()
			r.snapshot[i].IsRead = true
			r.snapshot[i].ReadAt = &now
			break
		}
	}
	r.mu.Unlock()
	return r.repo.MarkRead(ctx, id)
}

// MarkAllRead behaves like MarkRead for the whole snapshot.
func (r *Reconciler) MarkAllRead(ctx context.Context) error {
	now := time.Now()
	r.mu.Lock()
	for i := range r.snapshot {
		if !r.snapshot[i].IsRead {
			r.snapshot[i].IsRead = true
			r.snapshot[i].ReadAt = &now
		}
	}
	r.mu.Unlock()
	return r.repo.MarkAllRead(ctx, r.userID)
}

// Snapshot returns a copy of the current view, newest first.
func (r *Reconciler) Snapshot() []domain.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Notification, len(r.snapshot))
	copy(out, r.snapshot)
	return out
}

// UnreadCount is the local badge count.
func (r *Reconciler) UnreadCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, n := range r.snapshot {
		if !n.IsRead {
			count++
		}
	}
	return count
}

// LastCheck returns the polling cursor: the time of the last successful
// snapshot replacement.
func (r *Reconciler) LastCheck() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastCheck
}
