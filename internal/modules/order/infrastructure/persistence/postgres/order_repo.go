package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/JoelKayemba/dream-market-sub000/internal/modules/order/domain"
)

type PgOrderRepository struct {
	db *sqlx.DB
}

func NewPgOrderRepository(db *sqlx.DB) *PgOrderRepository {
	return &PgOrderRepository{db: db}
}

func (r *PgOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	order.UpdatedAt = time.Now()

	query := `
		INSERT INTO orders (id, order_number, user_id, customer_name, total, status, created_at, updated_at)
		VALUES (:id, :order_number, :user_id, :customer_name, :total, :status, :created_at, :updated_at)
	`
	_, err := r.db.NamedExecContext(ctx, query, order)
	return err
}

func (r *PgOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	order := &domain.Order{}
	query := `SELECT * FROM orders WHERE id = $1`
	if err := r.db.GetContext(ctx, order, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

func (r *PgOrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error {
	query := `
		UPDATE orders
		SET status = $2, updated_at = NOW()
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *PgOrderRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT * FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	var orders []domain.Order
	if err := r.db.SelectContext(ctx, &orders, query, userID, limit); err != nil {
		return nil, err
	}
	return orders, nil
}
