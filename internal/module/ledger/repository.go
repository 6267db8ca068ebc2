package ledger

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists and queries ledger entries. There is deliberately
// no Update or Delete: the ledger is append only.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Append(ctx context.Context, entry *Entry) error
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]Entry, error)
	BalanceOf(ctx context.Context, account Account) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a ledger repository backed by the given database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Append(ctx context.Context, entry *Entry) error {
	if entry.AmountCents <= 0 {
		return ErrInvalidAmount
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]Entry, error) {
	var entries []Entry
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC, id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// BalanceOf computes credits minus debits for an account. A negative
// balance for CUSTOMER is expected once payments have been confirmed.
func (r *repository) BalanceOf(ctx context.Context, account Account) (int64, error) {
	var balance int64
	err := r.db.WithContext(ctx).
		Model(&Entry{}).
		Select("COALESCE(SUM(CASE WHEN direction = ? THEN amount_cents ELSE -amount_cents END), 0)", DirectionCredit).
		Where("account = ?", account).
		Scan(&balance).Error
	if err != nil {
		return 0, err
	}
	return balance, nil
}
