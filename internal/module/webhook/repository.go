package webhook

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Repository defines the interface for webhook subscription data access.
type Repository interface {
	ListEnabled(ctx context.Context) ([]Subscription, error)
	// GetByURL returns the subscription for a URL, or nil when none exists.
	GetByURL(ctx context.Context, url string) (*Subscription, error)
	Create(ctx context.Context, sub *Subscription) error
	Update(ctx context.Context, sub *Subscription) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new webhook subscription repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ListEnabled(ctx context.Context) ([]Subscription, error) {
	var subs []Subscription
	err := r.db.WithContext(ctx).Where("is_enabled = ?", true).Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *repository) GetByURL(ctx context.Context, url string) (*Subscription, error) {
	var sub Subscription
	err := r.db.WithContext(ctx).First(&sub, "url = ?", url).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (r *repository) Create(ctx context.Context, sub *Subscription) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

func (r *repository) Update(ctx context.Context, sub *Subscription) error {
	return r.db.WithContext(ctx).Save(sub).Error
}
