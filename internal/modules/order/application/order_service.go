package application

import (
	"context"

	"github.com/google/uuid"

	"github.com/JoelKayemba/dream-market-sub000/internal/modules/order/domain"
)

// OrderRepository is the persistence contract the service drives.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Order, error)
}

// OrderEvents is the notification side-channel. Implementations must not
// fail the order pipeline: both calls are enqueue-and-return.
type OrderEvents interface {
	NotifyOrderCreated(order domain.Order)
	NotifyOrderStatusChanged(order domain.Order, status domain.OrderStatus)
}

// OrderService persists orders and, after each commit, enqueues the event
// that may become a notification. The enqueue happens strictly after the
// write so a notification can never reference an order that failed to
// persist.
type OrderService struct {
	repo   OrderRepository
	events OrderEvents
}

func NewOrderService(repo OrderRepository, events OrderEvents) *OrderService {
	return &OrderService{repo: repo, events: events}
}

func (s *OrderService) Create(ctx context.Context, order *domain.Order) error {
	if order.Status == "" {
		order.Status = domain.StatusPending
	}
	if err := s.repo.Create(ctx, order); err != nil {
		return err
	}
	if s.events != nil {
		s.events.NotifyOrderCreated(*order)
	}
	return nil
}

func (s *OrderService) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error {
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if s.events != nil {
		s.events.NotifyOrderStatusChanged(*order, status)
	}
	return nil
}

func (s *OrderService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *OrderService) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Order, error) {
	return s.repo.ListByUser(ctx, userID, limit)
}
