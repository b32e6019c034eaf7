package application

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JoelKayemba/dream-market-sub000/internal/modules/notification/domain"
)

// SessionManager owns one Reconciler per signed-in user. Opening a session
// for a user who already has one replaces it: a single logical session per
// user.
type SessionManager struct {
	repo       domain.NotificationRepository
	dispatcher domain.Dispatcher
	bridge     domain.Bridge
	pollEvery  time.Duration

	mu       sync.Mutex
	sessions map[uuid.UUID]*Reconciler
}

func NewSessionManager(repo domain.NotificationRepository, dispatcher domain.Dispatcher, bridge domain.Bridge, pollEvery time.Duration) *SessionManager {
	return &SessionManager{
		repo:       repo,
		dispatcher: dispatcher,
		bridge:     bridge,
		pollEvery:  pollEvery,
		sessions:   make(map[uuid.UUID]*Reconciler),
	}
}

// Open starts a reconciler session for the user, replacing any previous one.
func (m *SessionManager) Open(ctx context.Context, userID uuid.UUID, role domain.Role) (*Reconciler, error) {
	m.mu.Lock()
	prev := m.sessions[userID]
	rec := NewReconciler(userID, role, m.repo, m.dispatcher, m.bridge, m.pollEvery)
	m.sessions[userID] = rec
	m.mu.Unlock()

	if prev != nil {
		prev.Stop()
	}
	if err := rec.Start(ctx); err != nil {
		return nil, err
	}
	return rec, nil
}

// Get returns the active session for the user, or nil.
func (m *SessionManager) Get(userID uuid.UUID) *Reconciler {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[userID]
}

// Close stops and removes the user's session. Closing an absent session is
// a no-op.
func (m *SessionManager) Close(userID uuid.UUID) {
	m.mu.Lock()
	rec := m.sessions[userID]
	delete(m.sessions, userID)
	m.mu.Unlock()
	if rec != nil {
		rec.Stop()
	}
}

// CloseAll stops every session; used at shutdown.
func (m *SessionManager) CloseAll() {
	m.mu.Lock()
	recs := make([]*Reconciler, 0, len(m.sessions))
	for _, rec := range m.sessions {
		recs = append(recs, rec)
	}
	m.sessions = make(map[uuid.UUID]*Reconciler)
	m.mu.Unlock()
	for _, rec := range recs {
		rec.Stop()
	}
}
