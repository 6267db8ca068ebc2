package charge

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository defines the interface for charge data access.
type Repository interface {
	// WithTx returns a repository bound to the given transaction.
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, charge *Charge) error
	Get(ctx context.Context, id uuid.UUID) (*Charge, error)
	// LockForUpdate loads the charge under an exclusive row lock. It must be
	// called inside a transaction; the lock is held until commit/rollback.
	LockForUpdate(ctx context.Context, id uuid.UUID) (*Charge, error)
	Update(ctx context.Context, charge *Charge) error
	// LatestForOrder returns the most recently created charge for an order,
	// or nil when the order has never been charged.
	LatestForOrder(ctx context.Context, orderID uuid.UUID) (*Charge, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new charge repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, charge *Charge) error {
	return r.db.WithContext(ctx).Create(charge).Error
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*Charge, error) {
	var charge Charge
	err := r.db.WithContext(ctx).First(&charge, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChargeNotFound
		}
		return nil, err
	}
	return &charge, nil
}

func (r *repository) LockForUpdate(ctx context.Context, id uuid.UUID) (*Charge, error) {
	var charge Charge
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&charge, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChargeNotFound
		}
		return nil, err
	}
	return &charge, nil
}

func (r *repository) Update(ctx context.Context, charge *Charge) error {
	return r.db.WithContext(ctx).Save(charge).Error
}

func (r *repository) LatestForOrder(ctx context.Context, orderID uuid.UUID) (*Charge, error) {
	var charge Charge
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		First(&charge).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &charge, nil
}
