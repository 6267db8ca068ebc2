package ledger

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Direction of a ledger entry.
type Direction string

const (
	DirectionDebit  Direction = "DEBIT"
	DirectionCredit Direction = "CREDIT"
)

// Account names the three custody accounts funds move between.
type Account string

const (
	AccountCustomer Account = "CUSTOMER"
	AccountEscrow   Account = "ESCROW"
	AccountMerchant Account = "MERCHANT"
)

// EntryType tags the business event that produced an entry.
type EntryType string

const (
	EntryPaymentConfirmed   EntryType = "PAYMENT_CONFIRMED"
	EntryEscrowHeld         EntryType = "ESCROW_HELD"
	EntryReleasedToMerchant EntryType = "RELEASED_TO_MERCHANT"
	EntryRefundedToCustomer EntryType = "REFUNDED_TO_CUSTOMER"
)

// Entry is one side of a double-entry fund movement. Entries are append
// only: they are never updated or deleted, and corrections are made by
// appending offsetting entries.
type Entry struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderID     uuid.UUID      `json:"order_id" gorm:"type:uuid;not null;index"`
	Type        EntryType      `json:"type" gorm:"not null"`
	AmountCents int64          `json:"amount_cents" gorm:"not null"`
	Direction   Direction      `json:"direction" gorm:"not null"`
	Account     Account        `json:"account" gorm:"not null;index"`
	CreatedAt   time.Time      `json:"created_at"`
	Meta        datatypes.JSON `json:"meta,omitempty" gorm:"type:jsonb"`
}

// TableName returns the database table name.
func (Entry) TableName() string {
	return "ledger_entries"
}
