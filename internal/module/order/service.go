package order

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ChargeSummary is the slice of charge state the order surface exposes
// alongside an order. The charge module owns the full model.
type ChargeSummary struct {
	ID        uuid.UUID `json:"id"`
	Status    string    `json:"status"`
	ExpiresAt time.Time `json:"expires_at"`
	PixEMV    string    `json:"pix_emv"`
	TxID      string    `json:"txid"`
}

// ChargeSource provides the most recent charge for an order.
type ChargeSource interface {
	LatestForOrder(ctx context.Context, orderID uuid.UUID) (*ChargeSummary, error)
}

// Service implements order operations.
type Service struct {
	repo    Repository
	sm      *StateMachine
	charges ChargeSource
	logger  *zap.Logger
}

// NewService creates a new order service.
func NewService(repo Repository, charges ChargeSource, logger *zap.Logger) *Service {
	return &Service{
		repo:    repo,
		sm:      NewStateMachine(),
		charges: charges,
		logger:  logger,
	}
}

// Create inserts a new order inside the given transaction. The order is
// born CREATED and immediately advanced to AWAITING_PAYMENT; awaiting
// payment is the effective creation state, no external event is required.
func (s *Service) Create(ctx context.Context, tx *gorm.DB, amountCents int64, currency string) (*Order, error) {
	if amountCents <= 0 {
		return nil, ErrInvalidAmount
	}
	if !validCurrency(currency) {
		return nil, ErrInvalidCurrency
	}

	order := &Order{
		ID:          uuid.New(),
		Status:      StatusCreated,
		AmountCents: amountCents,
		Currency:    currency,
	}
	if err := s.sm.Transition(order, StatusAwaitingPayment); err != nil {
		return nil, err
	}

	if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.logger.Info("order created",
		zap.String("order_id", order.ID.String()),
		zap.Int64("amount_cents", amountCents),
		zap.String("currency", currency),
	)
	return order, nil
}

// Get returns an order by ID.
func (s *Service) Get(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	return s.repo.Get(ctx, orderID)
}

// GetWithCharge returns an order together with its most recent charge,
// if any.
func (s *Service) GetWithCharge(ctx context.Context, orderID uuid.UUID) (*Order, *ChargeSummary, error) {
	order, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	charge, err := s.charges.LatestForOrder(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	return order, charge, nil
}

func validCurrency(currency string) bool {
	if len(currency) != 3 {
		return false
	}
	for _, r := range currency {
		if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
			return false
		}
	}
	return true
}
