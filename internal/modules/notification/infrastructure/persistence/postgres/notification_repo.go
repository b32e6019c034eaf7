package postgres

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/JoelKayemba/dream-market-sub000/internal/modules/notification/domain"
)

type PgNotificationRepository struct {
	db *sqlx.DB
}

func NewPgNotificationRepository(db *sqlx.DB) *PgNotificationRepository {
	return &PgNotificationRepository{db: db}
}

func (r *PgNotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	if err := n.Validate(); err != nil {
		return err
	}
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.Family == "" {
		n.Family = domain.FamilyOf(n.Kind)
	}
	if n.Priority == 0 {
		n.Priority = domain.PriorityNormal
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO notifications (
			id, user_id, order_id, kind, family, title, message,
			payload, priority, is_read, is_sent, created_at, read_at, sent_at
		) VALUES (
			:id, :user_id, :order_id, :kind, :family, :title, :message,
			:payload, :priority, :is_read, :is_sent, :created_at, :read_at, :sent_at
		)
	`
	_, err := r.db.NamedExecContext(ctx, query, n)
	return err
}

func (r *PgNotificationRepository) ListByUser(ctx context.Context, userID uuid.UUID, f domain.ListFilter) ([]domain.Notification, error) {
	query, args := buildListQuery("SELECT * FROM notifications", userID, f)
	query += " ORDER BY created_at DESC LIMIT $" + strconv.Itoa(len(args)+1)
	args = append(args, f.EffectiveLimit())

	var notifications []domain.Notification
	if err := r.db.SelectContext(ctx, &notifications, query, args...); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *PgNotificationRepository) CountByUser(ctx context.Context, userID uuid.UUID, f domain.ListFilter) (int, error) {
	query, args := buildListQuery("SELECT COUNT(*) FROM notifications", userID, f)
	var count int
	err := r.db.GetContext(ctx, &count, query, args...)
	return count, err
}

// buildListQuery appends the WHERE clause shared by ListByUser and
// CountByUser so both resolve filters with identical semantics.
func buildListQuery(head string, userID uuid.UUID, f domain.ListFilter) (string, []any) {
	query := head + " WHERE user_id = $1"
	args := []any{userID}

	next := func() string { return "$" + strconv.Itoa(len(args)+1) }

	switch {
	case f.Kind != "":
		query += " AND kind = " + next()
		args = append(args, f.Kind)
	case f.Family != "":
		query += " AND family = " + next()
		args = append(args, f.Family)
	case f.ExcludeFamily != "":
		query += " AND family <> " + next()
		args = append(args, f.ExcludeFamily)
	}
	if f.UnreadOnly {
		query += " AND is_read = FALSE"
	}
	if f.UnsentOnly {
		query += " AND is_sent = FALSE"
	}
	return query, args
}

func (r *PgNotificationRepository) ExistsForOrder(ctx context.Context, userID, orderID uuid.UUID, kind domain.Kind) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM notifications
			WHERE user_id = $1 AND order_id = $2 AND kind = $3
		)
	`
	var exists bool
	err := r.db.GetContext(ctx, &exists, query, userID, orderID, kind)
	return exists, err
}

// MarkSent is a monotone flip: an already-sent or missing row is a
// successful no-op, never an error.
func (r *PgNotificationRepository) MarkSent(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE notifications
		SET is_sent = TRUE, sent_at = NOW()
		WHERE id = $1 AND is_sent = FALSE
	`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

func (r *PgNotificationRepository) MarkManySent(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	query := `
		UPDATE notifications
		SET is_sent = TRUE, sent_at = NOW()
		WHERE id = ANY($1) AND is_sent = FALSE
	`
	_, err := r.db.ExecContext(ctx, query, pq.Array(ids))
	return err
}

func (r *PgNotificationRepository) MarkRead(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE notifications
		SET is_read = TRUE, read_at = NOW()
		WHERE id = $1 AND is_read = FALSE
	`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

func (r *PgNotificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	query := `
		UPDATE notifications
		SET is_read = TRUE, read_at = NOW()
		WHERE user_id = $1 AND is_read = FALSE
	`
	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}

func (r *PgNotificationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM notifications WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

// PurgeOlderThan removes read rows past the retention window. Unread rows
// are exempt unconditionally.
func (r *PgNotificationRepository) PurgeOlderThan(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		return 0, fmt.Errorf("retention window must be positive, got %d", days)
	}
	query := `
		DELETE FROM notifications
		WHERE created_at < NOW() - ($1 * INTERVAL '1 day') AND is_read = TRUE
	`
	res, err := r.db.ExecContext(ctx, query, days)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
