package escrow

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ventrapay/escrow-server/internal/module/ledger"
	"github.com/ventrapay/escrow-server/internal/module/order"
	"github.com/ventrapay/escrow-server/internal/shared/events"
	"github.com/ventrapay/escrow-server/internal/shared/metrics"
)

// Service settles escrowed funds: release pays the merchant, refund
// returns the money to the customer. Both run inside a caller-provided
// transaction and return the events to dispatch after commit.
type Service struct {
	orders  order.Repository
	sm      *order.StateMachine
	ledger  *ledger.Service
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewService creates a new escrow settlement service.
func NewService(orders order.Repository, ledgerSvc *ledger.Service, m *metrics.Metrics, logger *zap.Logger) *Service {
	return &Service{
		orders:  orders,
		sm:      order.NewStateMachine(),
		ledger:  ledgerSvc,
		metrics: m,
		logger:  logger,
	}
}

// Release pays escrowed funds out to the merchant.
func (s *Service) Release(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (*order.Order, []events.Event, error) {
	ord, err := s.settle(ctx, tx, orderID, order.StatusReleased, ledger.Transfer{
		From:       ledger.AccountEscrow,
		To:         ledger.AccountMerchant,
		DebitType:  ledger.EntryReleasedToMerchant,
		CreditType: ledger.EntryReleasedToMerchant,
	})
	if err != nil {
		return nil, nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordOperation("release", "success")
	}
	s.logger.Info("escrow released",
		zap.String("order_id", ord.ID.String()),
		zap.Int64("amount_cents", ord.AmountCents),
	)
	evs := []events.Event{events.New(events.OrderReleased, map[string]any{
		"order_id":     ord.ID.String(),
		"amount_cents": ord.AmountCents,
		"currency":     ord.Currency,
	})}
	return ord, evs, nil
}

// Refund returns escrowed funds to the customer.
func (s *Service) Refund(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (*order.Order, []events.Event, error) {
	ord, err := s.settle(ctx, tx, orderID, order.StatusRefunded, ledger.Transfer{
		From:       ledger.AccountEscrow,
		To:         ledger.AccountCustomer,
		DebitType:  ledger.EntryRefundedToCustomer,
		CreditType: ledger.EntryRefundedToCustomer,
	})
	if err != nil {
		return nil, nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordOperation("refund", "success")
	}
	s.logger.Info("escrow refunded",
		zap.String("order_id", ord.ID.String()),
		zap.Int64("amount_cents", ord.AmountCents),
	)
	evs := []events.Event{events.New(events.OrderRefunded, map[string]any{
		"order_id":     ord.ID.String(),
		"amount_cents": ord.AmountCents,
		"currency":     ord.Currency,
	})}
	return ord, evs, nil
}

// settle performs the shared guard rails and fund movement. A disputed
// order gets its own error so operators see why settlement is blocked.
func (s *Service) settle(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, to order.Status, t ledger.Transfer) (*order.Order, error) {
	repo := s.orders.WithTx(tx)
	ord, err := repo.LockForUpdate(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if ord.Status == order.StatusDisputed {
		return nil, fmt.Errorf("%w: order %s", order.ErrOrderDisputed, ord.ID)
	}
	if !ord.IsPaidInEscrow() {
		return nil, fmt.Errorf("%w: order %s is %s", order.ErrOrderNotInEscrow, ord.ID, ord.Status)
	}

	if err := s.sm.Transition(ord, to); err != nil {
		return nil, err
	}
	if err := repo.Update(ctx, ord); err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}

	t.OrderID = ord.ID
	t.AmountCents = ord.AmountCents
	if err := s.ledger.Record(ctx, tx, t); err != nil {
		return nil, err
	}
	return ord, nil
}
