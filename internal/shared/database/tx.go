package database

import (
	"context"

	"gorm.io/gorm"
)

// TxManager makes transaction boundaries explicit. Every mutating business
// operation runs inside exactly one transaction: the whole unit commits, or
// none of it does.
type TxManager interface {
	WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type gormTxManager struct {
	db *gorm.DB
}

// NewTxManager creates a TxManager backed by the given database handle.
func NewTxManager(db *gorm.DB) TxManager {
	return &gormTxManager{db: db}
}

func (m *gormTxManager) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return m.db.WithContext(ctx).Transaction(fn)
}
