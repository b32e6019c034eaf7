package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusPreparing OrderStatus = "preparing"
	StatusShipped   OrderStatus = "shipped"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

// Order is the upstream producer record. The notification core treats it as
// a black box carrying the fields its titles and payloads are built from.
type Order struct {
	ID           uuid.UUID   `json:"id" db:"id"`
	OrderNumber  string      `json:"order_number" db:"order_number"`
	UserID       uuid.UUID   `json:"user_id" db:"user_id"`
	CustomerName string      `json:"customer_name" db:"customer_name"`
	Total        float64     `json:"total" db:"total"`
	Status       OrderStatus `json:"status" db:"status"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at" db:"updated_at"`
}

var (
	ErrOrderNotFound = errors.New("order not found")
)
