package domain

import (
	"context"

	"github.com/google/uuid"
)

// List limits. Unsent queries use the tighter cap because every row they
// return turns into a push dispatch.
const (
	DefaultListLimit = 50
	UnsentListLimit  = 20
)

// ListFilter restricts ListByUser and CountByUser. The zero value means
// "all notifications for the user, newest first, default limit".
type ListFilter struct {
	// Family restricts to one audience family. Empty means no family
	// restriction.
	Family Family
	// Kind restricts to one exact kind. Takes precedence over Family.
	Kind Kind
	// ExcludeFamily drops one family from the result; used by client
	// sessions which see everything except admin rows.
	ExcludeFamily Family
	UnreadOnly    bool
	UnsentOnly    bool
	// Limit caps the result. Zero selects DefaultListLimit, or
	// UnsentListLimit when UnsentOnly is set.
	Limit int
}

// EffectiveLimit resolves the zero-value default.
func (f ListFilter) EffectiveLimit() int {
	if f.Limit > 0 {
		return f.Limit
	}
	if f.UnsentOnly {
		return UnsentListLimit
	}
	return DefaultListLimit
}

// FilterForRole derives the store-level filter a session role implies.
func FilterForRole(role Role) ListFilter {
	if role == RoleAdmin {
		return ListFilter{Family: FamilyAdmin}
	}
	return ListFilter{ExcludeFamily: FamilyAdmin}
}

// NotificationRepository is the store gateway: typed CRUD over the
// notifications table. It performs no retries; transport failures surface
// to the caller unmodified. Mark operations on missing rows are successful
// no-ops because callers may race with a deletion.
type NotificationRepository interface {
	Create(ctx context.Context, n *Notification) error
	ListByUser(ctx context.Context, userID uuid.UUID, f ListFilter) ([]Notification, error)
	CountByUser(ctx context.Context, userID uuid.UUID, f ListFilter) (int, error)
	// ExistsForOrder is the dedup boundary: it checks the
	// (user, order, kind) triple the translator keys inserts on.
	ExistsForOrder(ctx context.Context, userID, orderID uuid.UUID, kind Kind) (bool, error)
	MarkSent(ctx context.Context, id uuid.UUID) error
	MarkManySent(ctx context.Context, ids []uuid.UUID) error
	MarkRead(ctx context.Context, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	// PurgeOlderThan deletes rows older than the retention window that
	// have been read. Unread rows are exempt regardless of age.
	PurgeOlderThan(ctx context.Context, days int) (int64, error)
}

// AdminDirectory lists the users holding the admin capability; the
// translator fans admin notifications out to them.
type AdminDirectory interface {
	ListAdminIDs(ctx context.Context) ([]uuid.UUID, error)
}
