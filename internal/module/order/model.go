package order

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle status of an order.
type Status string

const (
	StatusCreated         Status = "CREATED"
	StatusAwaitingPayment Status = "AWAITING_PAYMENT"
	StatusPaidInEscrow    Status = "PAID_IN_ESCROW"
	StatusReleased        Status = "RELEASED"
	StatusRefunded        Status = "REFUNDED"
	StatusDisputed        Status = "DISPUTED"
	StatusResolved        Status = "RESOLVED"
)

// Order represents a single escrow purchase intent. AmountCents is immutable
// after creation; Status only changes along the order transition table.
type Order struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Status      Status    `json:"status" gorm:"not null"`
	AmountCents int64     `json:"amount_cents" gorm:"not null"`
	Currency    string    `json:"currency" gorm:"type:varchar(3);not null"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the database table name.
func (Order) TableName() string {
	return "orders"
}

// IsAwaitingPayment returns true if the order can still be charged.
func (o *Order) IsAwaitingPayment() bool {
	return o.Status == StatusAwaitingPayment
}

// IsPaidInEscrow returns true if funds are held in custody for this order.
func (o *Order) IsPaidInEscrow() bool {
	return o.Status == StatusPaidInEscrow
}
