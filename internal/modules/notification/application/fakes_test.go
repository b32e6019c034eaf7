package application_test

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/JoelKayemba/dream-market-sub000/internal/modules/notification/domain"
)

// fakeRepo is an in-memory NotificationRepository with the same filter and
// dedup semantics as the Postgres gateway. Error fields inject failures per
// method.
type fakeRepo struct {
	mu   sync.Mutex
	rows []domain.Notification

	createErr      error
	listErr        error
	markSentErr    error
	markReadErr    error
	markAllReadErr error
	purgeErr       error

	createCalls   int
	listCalls     int
	markSentCalls int
	markReadIDs   []uuid.UUID
	markAllReadTo []uuid.UUID
	purgeDays     []int
	purgeReturn   int64
}

func (r *fakeRepo) Create(ctx context.Context, n *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.createCalls++
	if r.createErr != nil {
		return r.createErr
	}
	if err := n.Validate(); err != nil {
		return err
	}
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	n.Family = domain.FamilyOf(n.Kind)
	if n.Priority == 0 {
		n.Priority = domain.PriorityNormal
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	r.rows = append(r.rows, *n)
	return nil
}

func (r *fakeRepo) ListByUser(ctx context.Context, userID uuid.UUID, f domain.ListFilter) ([]domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listCalls++
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.filterLocked(userID, f), nil
}

func (r *fakeRepo) CountByUser(ctx context.Context, userID uuid.UUID, f domain.ListFilter) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return 0, r.listErr
	}
	return len(r.filterLocked(userID, f)), nil
}

func (r *fakeRepo) filterLocked(userID uuid.UUID, f domain.ListFilter) []domain.Notification {
	out := make([]domain.Notification, 0)
	for _, n := range r.rows {
		if n.UserID != userID {
			continue
		}
		switch {
		case f.Kind != "":
			if n.Kind != f.Kind {
				continue
			}
		case f.Family != "":
			if n.Family != f.Family {
				continue
			}
		case f.ExcludeFamily != "":
			if n.Family == f.ExcludeFamily {
				continue
			}
		}
		if f.UnreadOnly && n.IsRead {
			continue
		}
		if f.UnsentOnly && n.IsSent {
			continue
		}
		out = append(out, n)
		if len(out) >= f.EffectiveLimit() {
			break
		}
	}
	return out
}

func (r *fakeRepo) ExistsForOrder(ctx context.Context, userID, orderID uuid.UUID, kind domain.Kind) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.rows {
		if n.UserID == userID && n.OrderID != nil && *n.OrderID == orderID && n.Kind == kind {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRepo) MarkSent(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.markSentCalls++
	if r.markSentErr != nil {
		return r.markSentErr
	}
	for i := range r.rows {
		if r.rows[i].ID == id {
			r.rows[i].IsSent = true
		}
	}
	return nil
}

func (r *fakeRepo) MarkManySent(ctx context.Context, ids []uuid.UUID) error {
	for _, id := range ids {
		if err := r.MarkSent(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeRepo) MarkRead(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.markReadIDs = append(r.markReadIDs, id)
	if r.markReadErr != nil {
		return r.markReadErr
	}
	for i := range r.rows {
		if r.rows[i].ID == id {
			r.rows[i].IsRead = true
		}
	}
	return nil
}

func (r *fakeRepo) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.markAllReadTo = append(r.markAllReadTo, userID)
	if r.markAllReadErr != nil {
		return r.markAllReadErr
	}
	for i := range r.rows {
		if r.rows[i].UserID == userID {
			r.rows[i].IsRead = true
		}
	}
	return nil
}

func (r *fakeRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.rows[:0]
	for _, n := range r.rows {
		if n.ID != id {
			kept = append(kept, n)
		}
	}
	r.rows = kept
	return nil
}

func (r *fakeRepo) PurgeOlderThan(ctx context.Context, days int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.purgeDays = append(r.purgeDays, days)
	if r.purgeErr != nil {
		return 0, r.purgeErr
	}
	return r.purgeReturn, nil
}

func (r *fakeRepo) created() []domain.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Notification, len(r.rows))
	copy(out, r.rows)
	return out
}

func (r *fakeRepo) calls() (createCalls, listCalls, markSentCalls int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.createCalls, r.listCalls, r.markSentCalls
}

type fakeAdmins struct {
	ids []uuid.UUID
	err error
}

func (a *fakeAdmins) ListAdminIDs(ctx context.Context) ([]uuid.UUID, error) {
	return a.ids, a.err
}

type fakePublisher struct {
	mu        sync.Mutex
	err       error
	published []uuid.UUID
}

func (p *fakePublisher) PublishInsert(ctx context.Context, n *domain.Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, n.ID)
	return p.err
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published)
}

// fakeDispatcher records dispatch order. An optional gate channel makes
// Dispatch block until the channel is closed, for single-flight tests.
type fakeDispatcher struct {
	mu   sync.Mutex
	err  error
	ids  []uuid.UUID
	gate chan struct{}
}

func (d *fakeDispatcher) Dispatch(ctx context.Context, n *domain.Notification) error {
	d.mu.Lock()
	d.ids = append(d.ids, n.ID)
	gate := d.gate
	err := d.err
	d.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return err
}

func (d *fakeDispatcher) dispatched() []uuid.UUID {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]uuid.UUID, len(d.ids))
	copy(out, d.ids)
	return out
}

type fakeSub struct {
	mu     sync.Mutex
	closed int
}

func (s *fakeSub) Unsubscribe() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
}

func (s *fakeSub) unsubscribed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed > 0
}

// fakeBridge hands out fakeSub handles. An optional gate channel holds
// Subscribe in flight until the channel is closed; entered counts calls
// that have reached Subscribe.
type fakeBridge struct {
	mu      sync.Mutex
	err     error
	handler domain.BridgeHandler
	subs    []*fakeSub
	gate    chan struct{}
	entered atomic.Int32
}

func (b *fakeBridge) Subscribe(ctx context.Context, userID uuid.UUID, h domain.BridgeHandler) (domain.Subscription, error) {
	b.entered.Add(1)
	b.mu.Lock()
	gate := b.gate
	b.mu.Unlock()
	if gate != nil {
		<-gate
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return nil, b.err
	}
	b.handler = h
	sub := &fakeSub{}
	b.subs = append(b.subs, sub)
	return sub, nil
}

func (b *fakeBridge) subscriptions() []*fakeSub {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*fakeSub, len(b.subs))
	copy(out, b.subs)
	return out
}

func (b *fakeBridge) push(ev domain.InsertEvent) {
	b.mu.Lock()
	h := b.handler
	b.mu.Unlock()
	if h != nil {
		h.OnInsert(ev)
	}
}
