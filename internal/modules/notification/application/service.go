package application

import (
	"context"
	"log"

	"github.com/google/uuid"

	"github.com/JoelKayemba/dream-market-sub000/internal/modules/notification/domain"
)

// NotificationService is the HTTP-facing façade over the store gateway and
// the session manager. Read/write failures here are surfaced to the caller;
// only the translator's side-channel writes get the swallow-and-log
// treatment.
type NotificationService struct {
	repo      domain.NotificationRepository
	sessions  *SessionManager
	publisher domain.Publisher
}

func NewNotificationService(repo domain.NotificationRepository, sessions *SessionManager, publisher domain.Publisher) *NotificationService {
	return &NotificationService{repo: repo, sessions: sessions, publisher: publisher}
}

func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, role domain.Role, unreadOnly bool, limit int) ([]domain.Notification, error) {
	f := domain.FilterForRole(role)
	f.UnreadOnly = unreadOnly
	f.Limit = limit
	return s.repo.ListByUser(ctx, userID, f)
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uuid.UUID, role domain.Role) (int, error) {
	f := domain.FilterForRole(role)
	f.UnreadOnly = true
	return s.repo.CountByUser(ctx, userID, f)
}

// MarkRead routes through the active session when there is one so the
// in-memory snapshot stays ahead of the store, and falls back to the store
// directly otherwise.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	if rec := s.sessions.Get(userID); rec != nil {
		return rec.MarkRead(ctx, id)
	}
	return s.repo.MarkRead(ctx, id)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	if rec := s.sessions.Get(userID); rec != nil {
		return rec.MarkAllRead(ctx)
	}
	return s.repo.MarkAllRead(ctx, userID)
}

func (s *NotificationService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// CreateSystemMessage is the manual-creation escape hatch: admin-only
// system messages written outside the translator. The row goes through the
// same gateway validation and bridge publication as translated events.
func (s *NotificationService) CreateSystemMessage(ctx context.Context, userID uuid.UUID, title, message string, payload domain.Payload) (*domain.Notification, error) {
	n := &domain.Notification{
		UserID:   userID,
		Kind:     domain.KindSystemMessage,
		Title:    title,
		Message:  message,
		Payload:  payload,
		Priority: domain.PriorityNormal,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}
	notificationsCreated.WithLabelValues(string(n.Kind)).Inc()
	if s.publisher != nil {
		if err := s.publisher.PublishInsert(ctx, n); err != nil {
			// Best-effort, same as the translator; the next poll picks the
			// row up.
			log.Printf("[NotificationService] publish failed for %s: %v", n.ID, err)
		}
	}
	return n, nil
}

// Sessions exposes the session manager to the transport layer.
func (s *NotificationService) Sessions() *SessionManager {
	return s.sessions
}
