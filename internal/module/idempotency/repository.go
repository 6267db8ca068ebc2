package idempotency

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Repository defines the interface for idempotency record access.
type Repository interface {
	// WithTx returns a repository bound to the given transaction.
	WithTx(tx *gorm.DB) Repository

	// Get returns the record for (key, endpoint), or nil if none exists.
	Get(ctx context.Context, key, endpoint string) (*Record, error)
	// Create inserts a record. The composite primary key rejects a second
	// write for the same (key, endpoint).
	Create(ctx context.Context, record *Record) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new idempotency repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

func (r *repository) Get(ctx context.Context, key, endpoint string) (*Record, error) {
	var record Record
	err := r.db.WithContext(ctx).
		First(&record, "key = ? AND endpoint = ?", key, endpoint).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (r *repository) Create(ctx context.Context, record *Record) error {
	return r.db.WithContext(ctx).Create(record).Error
}
