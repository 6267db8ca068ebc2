package order

import (
	"time"

	"github.com/google/uuid"
)

// CreateOrderRequest represents a request to create an order.
type CreateOrderRequest struct {
	AmountCents int64  `json:"amount_cents" binding:"required,min=1"`
	Currency    string `json:"currency" binding:"omitempty,len=3"`
}

// OrderResponse represents an order in API responses.
type OrderResponse struct {
	ID          uuid.UUID      `json:"id"`
	Status      Status         `json:"status"`
	AmountCents int64          `json:"amount_cents"`
	Currency    string         `json:"currency"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	Charge      *ChargeSummary `json:"charge,omitempty"`
}

// ToResponse converts an Order to OrderResponse.
func (o *Order) ToResponse() *OrderResponse {
	return &OrderResponse{
		ID:          o.ID,
		Status:      o.Status,
		AmountCents: o.AmountCents,
		Currency:    o.Currency,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}
