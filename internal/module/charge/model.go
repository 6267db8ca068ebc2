package charge

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle status of a charge.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusPaid     Status = "PAID"
	StatusExpired  Status = "EXPIRED"
	StatusCanceled Status = "CANCELED"
)

// Charge is a payment attempt against an order. An order may accumulate
// several charges over time but at most one may ever reach PAID.
type Charge struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderID   uuid.UUID `json:"order_id" gorm:"type:uuid;not null;index"`
	Status    Status    `json:"status" gorm:"not null"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null"`
	PixEMV    string    `json:"pix_emv" gorm:"column:pix_emv;not null"`
	TxID      string    `json:"txid" gorm:"column:txid;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name.
func (Charge) TableName() string {
	return "charges"
}

// IsPending returns true if the charge can still be confirmed or canceled.
func (c *Charge) IsPending() bool {
	return c.Status == StatusPending
}

// ExpiredAt reports whether the charge's payment window has closed at the
// given instant.
func (c *Charge) ExpiredAt(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
