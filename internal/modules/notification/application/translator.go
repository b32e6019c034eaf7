package application

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JoelKayemba/dream-market-sub000/internal/modules/notification/domain"
	orderdomain "github.com/JoelKayemba/dream-market-sub000/internal/modules/order/domain"
)

// statusKinds maps an order status transition to the notification kind it
// produces. Statuses outside the table fall back to the generic update kind.
var statusKinds = map[orderdomain.OrderStatus]domain.Kind{
	orderdomain.StatusPending:   domain.KindOrderPending,
	orderdomain.StatusConfirmed: domain.KindOrderConfirmed,
	orderdomain.StatusPreparing: domain.KindOrderPreparing,
	orderdomain.StatusShipped:   domain.KindOrderShipped,
	orderdomain.StatusDelivered: domain.KindOrderDelivered,
	orderdomain.StatusCancelled: domain.KindOrderCancelled,
}

// KindForStatus resolves the status→kind table.
func KindForStatus(status orderdomain.OrderStatus) domain.Kind {
	if k, ok := statusKinds[status]; ok {
		return k
	}
	return domain.KindOrderStatusUpdate
}

type eventType int

const (
	eventOrderCreated eventType = iota
	eventOrderStatusChanged
)

type orderEvent struct {
	typ    eventType
	order  orderdomain.Order
	status orderdomain.OrderStatus
}

// TranslatorConfig tunes the task queue the translator runs order events
// through.
type TranslatorConfig struct {
	QueueSize    int
	MaxAttempts  int
	RetryBackoff time.Duration
}

func (c *TranslatorConfig) applyDefaults() {
	if c.QueueSize <= 0 {
		c.QueueSize = 64
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 500 * time.Millisecond
	}
}

// Translator turns domain events into deduplicated notification rows. It is
// an explicit task queue: producers enqueue after their own transaction has
// committed and never observe a notification failure. Events that keep
// failing after bounded retries are dead-letter logged and dropped.
type Translator struct {
	repo      domain.NotificationRepository
	admins    domain.AdminDirectory
	publisher domain.Publisher
	cfg       TranslatorConfig

	queue chan orderEvent
	wg    sync.WaitGroup
	once  sync.Once
}

func NewTranslator(repo domain.NotificationRepository, admins domain.AdminDirectory, publisher domain.Publisher, cfg TranslatorConfig) *Translator {
	cfg.applyDefaults()
	return &Translator{
		repo:      repo,
		admins:    admins,
		publisher: publisher,
		cfg:       cfg,
		queue:     make(chan orderEvent, cfg.QueueSize),
	}
}

// Start launches the worker goroutine.
func (t *Translator) Start() {
	t.wg.Add(1)
	go t.run()
}

// Stop drains no further events and waits for the worker to exit. Events
// still queued are processed before shutdown.
func (t *Translator) Stop() {
	t.once.Do(func() { close(t.queue) })
	t.wg.Wait()
}

// NotifyOrderCreated enqueues a new-order event. It never blocks the
// producer: a full queue drops the event with a log line.
func (t *Translator) NotifyOrderCreated(order orderdomain.Order) {
	t.enqueue(orderEvent{typ: eventOrderCreated, order: order})
}

// NotifyOrderStatusChanged enqueues a status-transition event.
func (t *Translator) NotifyOrderStatusChanged(order orderdomain.Order, status orderdomain.OrderStatus) {
	t.enqueue(orderEvent{typ: eventOrderStatusChanged, order: order, status: status})
}

func (t *Translator) enqueue(ev orderEvent) {
	select {
	case t.queue <- ev:
	default:
		deadLetters.Inc()
		log.Printf("[Translator] queue full, dropping event for order %s", ev.order.ID)
	}
}

func (t *Translator) run() {
	defer t.wg.Done()
	for ev := range t.queue {
		t.process(ev)
	}
}

// process retries a failing event a bounded number of times, then drops it
// with a dead-letter log line. A missed notification must never block the
// order pipeline that produced it.
func (t *Translator) process(ev orderEvent) {
	ctx := context.Background()
	var err error
	for attempt := 1; attempt <= t.cfg.MaxAttempts; attempt++ {
		err = t.handle(ctx, ev)
		if err == nil {
			return
		}
		if attempt < t.cfg.MaxAttempts {
			time.Sleep(t.cfg.RetryBackoff * time.Duration(attempt))
		}
	}
	deadLetters.Inc()
	log.Printf("[Translator] dead-letter: order %s after %d attempts: %v",
		ev.order.ID, t.cfg.MaxAttempts, err)
}

func (t *Translator) handle(ctx context.Context, ev orderEvent) error {
	switch ev.typ {
	case eventOrderCreated:
		return t.handleOrderCreated(ctx, ev.order)
	case eventOrderStatusChanged:
		return t.handleStatusChanged(ctx, ev.order, ev.status)
	}
	return nil
}

func (t *Translator) handleOrderCreated(ctx context.Context, order orderdomain.Order) error {
	adminIDs, err := t.admins.ListAdminIDs(ctx)
	if err != nil {
		return fmt.Errorf("list admins: %w", err)
	}

	title := "Nouvelle commande"
	message := fmt.Sprintf("%s a passé la commande %s (%.2f $)",
		order.CustomerName, order.OrderNumber, order.Total)

	for _, adminID := range adminIDs {
		if err := t.insertOnce(ctx, &domain.Notification{
			UserID:   adminID,
			OrderID:  &order.ID,
			Kind:     domain.KindAdminNewOrder,
			Title:    title,
			Message:  message,
			Priority: domain.PriorityHigh,
			Payload: domain.Payload{
				"order_id":      order.ID.String(),
				"order_number":  order.OrderNumber,
				"customer_name": order.CustomerName,
				"total":         order.Total,
				"urgent":        true,
			},
		}); err != nil {
			return err
		}
	}
	return nil
}

func (t *Translator) handleStatusChanged(ctx context.Context, order orderdomain.Order, status orderdomain.OrderStatus) error {
	kind := KindForStatus(status)
	title, message := statusText(order, status)

	return t.insertOnce(ctx, &domain.Notification{
		UserID:   order.UserID,
		OrderID:  &order.ID,
		Kind:     kind,
		Title:    title,
		Message:  message,
		Priority: domain.PriorityNormal,
		Payload: domain.Payload{
			"order_id":     order.ID.String(),
			"order_number": order.OrderNumber,
			"status":       string(status),
		},
	})
}

// insertOnce checks the dedup triple before writing: each distinct
// (user, order, kind) produces at most one stored notification for as long
// as the row survives retention.
func (t *Translator) insertOnce(ctx context.Context, n *domain.Notification) error {
	var orderID uuid.UUID
	if n.OrderID != nil {
		orderID = *n.OrderID
	}
	exists, err := t.repo.ExistsForOrder(ctx, n.UserID, orderID, n.Kind)
	if err != nil {
		return fmt.Errorf("dedup check: %w", err)
	}
	if exists {
		dedupSkips.WithLabelValues(string(n.Kind)).Inc()
		return nil
	}

	if err := t.repo.Create(ctx, n); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	notificationsCreated.WithLabelValues(string(n.Kind)).Inc()

	if t.publisher != nil {
		if err := t.publisher.PublishInsert(ctx, n); err != nil {
			// The bridge is best-effort; the next poll picks the row up.
			log.Printf("[Translator] publish failed for %s: %v", n.ID, err)
		}
	}
	return nil
}

func statusText(order orderdomain.Order, status orderdomain.OrderStatus) (string, string) {
	switch status {
	case orderdomain.StatusPending:
		return "Commande reçue", fmt.Sprintf("Votre commande %s est en attente de confirmation.", order.OrderNumber)
	case orderdomain.StatusConfirmed:
		return "Commande confirmée", fmt.Sprintf("Votre commande %s a été confirmée.", order.OrderNumber)
	case orderdomain.StatusPreparing:
		return "Commande en préparation", fmt.Sprintf("Votre commande %s est en cours de préparation.", order.OrderNumber)
	case orderdomain.StatusShipped:
		return "Commande expédiée", fmt.Sprintf("Votre commande %s est en route.", order.OrderNumber)
	case orderdomain.StatusDelivered:
		return "Commande livrée", fmt.Sprintf("Votre commande %s a été livrée.", order.OrderNumber)
	case orderdomain.StatusCancelled:
		return "Commande annulée", fmt.Sprintf("Votre commande %s a été annulée.", order.OrderNumber)
	default:
		return "Mise à jour de commande", fmt.Sprintf("Le statut de votre commande %s a changé.", order.OrderNumber)
	}
}
