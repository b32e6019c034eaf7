package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Kind identifies the semantic type of a notification. The vocabulary is
// fixed; every kind maps to exactly one Family via kindFamilies.
type Kind string

const (
	KindAdminNewOrder     Kind = "admin_new_order"
	KindOrderPending      Kind = "order_pending"
	KindOrderConfirmed    Kind = "order_confirmed"
	KindOrderPreparing    Kind = "order_preparing"
	KindOrderShipped      Kind = "order_shipped"
	KindOrderDelivered    Kind = "order_delivered"
	KindOrderCancelled    Kind = "order_cancelled"
	KindOrderStatusUpdate Kind = "order_status_update"
	KindPromotion         Kind = "promotion"
	KindSystemMessage     Kind = "system_message"
)

// Family partitions kinds into the admin and client audiences. It is stored
// on the row at creation time so that filtering is a column comparison
// rather than prefix inspection of the kind string.
type Family string

const (
	FamilyAdmin  Family = "admin"
	FamilyClient Family = "client"
)

var kindFamilies = map[Kind]Family{
	KindAdminNewOrder:     FamilyAdmin,
	KindOrderPending:      FamilyClient,
	KindOrderConfirmed:    FamilyClient,
	KindOrderPreparing:    FamilyClient,
	KindOrderShipped:      FamilyClient,
	KindOrderDelivered:    FamilyClient,
	KindOrderCancelled:    FamilyClient,
	KindOrderStatusUpdate: FamilyClient,
	KindPromotion:         FamilyClient,
	KindSystemMessage:     FamilyClient,
}

// FamilyOf returns the audience family for a kind. Unknown kinds fall back
// to the client family so a typo can never leak a row into admin sessions.
func FamilyOf(kind Kind) Family {
	if f, ok := kindFamilies[kind]; ok {
		return f
	}
	return FamilyClient
}

// KnownKind reports whether kind belongs to the fixed vocabulary.
func KnownKind(kind Kind) bool {
	_, ok := kindFamilies[kind]
	return ok
}

// Priority is a display attribute only, it never affects ordering or
// delivery.
const (
	PriorityNormal = 1
	PriorityHigh   = 2
	PriorityUrgent = 3
)

// Payload is the opaque attribute map carried through to the on-device
// alert unchanged.
type Payload map[string]any

// Notification is the unit of delivery. Content (title, message, payload)
// is immutable after creation; the only mutations are the one-way is_sent
// and is_read flag flips and the retention purge.
type Notification struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	UserID    uuid.UUID  `json:"user_id" db:"user_id"`
	OrderID   *uuid.UUID `json:"order_id,omitempty" db:"order_id"`
	Kind      Kind       `json:"kind" db:"kind"`
	Family    Family     `json:"family" db:"family"`
	Title     string     `json:"title" db:"title"`
	Message   string     `json:"message" db:"message"`
	Payload   Payload    `json:"payload,omitempty" db:"payload"`
	Priority  int        `json:"priority" db:"priority"`
	IsRead    bool       `json:"is_read" db:"is_read"`
	IsSent    bool       `json:"is_sent" db:"is_sent"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	ReadAt    *time.Time `json:"read_at,omitempty" db:"read_at"`
	SentAt    *time.Time `json:"sent_at,omitempty" db:"sent_at"`
}

// Validate checks the fields the store gateway refuses to persist without.
func (n *Notification) Validate() error {
	if n.UserID == uuid.Nil {
		return ErrValidation
	}
	if n.Kind == "" || n.Title == "" || n.Message == "" {
		return ErrValidation
	}
	return nil
}

// Role is the audience of a signed-in session.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleClient Role = "client"
)

// VisibleTo reports whether a session with the given role may see this
// notification. Admin sessions see only the admin family; client sessions
// see everything except it.
func (n *Notification) VisibleTo(role Role) bool {
	if role == RoleAdmin {
		return n.Family == FamilyAdmin
	}
	return n.Family != FamilyAdmin
}

var (
	ErrValidation           = errors.New("notification is missing required fields")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrSubscriptionLost     = errors.New("realtime subscription lost")
)
