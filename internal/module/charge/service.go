package charge

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ventrapay/escrow-server/internal/module/ledger"
	"github.com/ventrapay/escrow-server/internal/module/order"
	"github.com/ventrapay/escrow-server/internal/shared/events"
	"github.com/ventrapay/escrow-server/internal/shared/metrics"
	"github.com/ventrapay/escrow-server/internal/shared/random"
)

// Service implements charge operations. All mutations run inside a
// caller-provided transaction; domain events are returned to the caller,
// which must only dispatch them after the transaction commits.
type Service struct {
	repo    Repository
	orders  order.Repository
	sm      *StateMachine
	orderSM *order.StateMachine
	ledger  *ledger.Service
	metrics *metrics.Metrics
	ttl     time.Duration
	logger  *zap.Logger

	// now is replaceable in tests to exercise expiry.
	now func() time.Time
}

// NewService creates a new charge service. ttl is the payment window for
// new charges.
func NewService(repo Repository, orders order.Repository, ledgerSvc *ledger.Service, m *metrics.Metrics, ttl time.Duration, logger *zap.Logger) *Service {
	return &Service{
		repo:    repo,
		orders:  orders,
		sm:      NewStateMachine(),
		orderSM: order.NewStateMachine(),
		ledger:  ledgerSvc,
		metrics: m,
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
	}
}

// CreatePix creates a pending pix charge against an order that is still
// awaiting payment. The order row is read but not locked; a concurrent
// confirm on an older charge will simply leave this one to expire.
func (s *Service) CreatePix(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (*Charge, []events.Event, error) {
	ord, err := s.orders.WithTx(tx).Get(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	if !ord.IsAwaitingPayment() {
		return nil, nil, fmt.Errorf("%w: order %s is %s", ErrOrderNotAwaitingPayment, ord.ID, ord.Status)
	}

	txid, err := random.Hex(16)
	if err != nil {
		return nil, nil, fmt.Errorf("generate txid: %w", err)
	}
	emv, err := random.Hex(16)
	if err != nil {
		return nil, nil, fmt.Errorf("generate pix payload: %w", err)
	}

	charge := &Charge{
		ID:        uuid.New(),
		OrderID:   ord.ID,
		Status:    StatusPending,
		ExpiresAt: s.now().UTC().Add(s.ttl),
		PixEMV:    "EMV-SANDBOX-" + emv,
		TxID:      txid,
	}
	if err := s.repo.WithTx(tx).Create(ctx, charge); err != nil {
		return nil, nil, fmt.Errorf("create charge: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordOperation("create_charge", "success")
	}
	s.logger.Info("pix charge created",
		zap.String("charge_id", charge.ID.String()),
		zap.String("order_id", ord.ID.String()),
		zap.Time("expires_at", charge.ExpiresAt),
	)

	evs := []events.Event{events.New(events.ChargeCreated, map[string]any{
		"charge_id":    charge.ID.String(),
		"order_id":     ord.ID.String(),
		"txid":         charge.TxID,
		"amount_cents": ord.AmountCents,
		"expires_at":   charge.ExpiresAt,
	})}
	return charge, evs, nil
}

// ConfirmPayment marks a pending charge as paid and moves the order's
// funds into escrow. The order row is locked before the charge row;
// every multi-row operation takes locks in that order. The charge is
// re-read under its lock because the first read was unlocked.
//
// An expired charge is a terminal resolution, not a failure: the charge
// is moved to EXPIRED and ErrChargeExpired is returned, and the caller
// must still commit the transaction. The order and the ledger are left
// untouched in that case.
func (s *Service) ConfirmPayment(ctx context.Context, tx *gorm.DB, chargeID uuid.UUID) (*Charge, []events.Event, error) {
	chargeRepo := s.repo.WithTx(tx)
	orderRepo := s.orders.WithTx(tx)

	probe, err := chargeRepo.Get(ctx, chargeID)
	if err != nil {
		return nil, nil, err
	}
	ord, err := orderRepo.LockForUpdate(ctx, probe.OrderID)
	if err != nil {
		return nil, nil, err
	}
	charge, err := chargeRepo.LockForUpdate(ctx, chargeID)
	if err != nil {
		return nil, nil, err
	}

	if !charge.IsPending() {
		return nil, nil, fmt.Errorf("%w: charge %s is %s", ErrChargeNotPending, charge.ID, charge.Status)
	}

	if charge.ExpiredAt(s.now()) {
		if err := s.sm.Transition(charge, StatusExpired); err != nil {
			return nil, nil, err
		}
		if err := chargeRepo.Update(ctx, charge); err != nil {
			return nil, nil, fmt.Errorf("expire charge: %w", err)
		}
		if s.metrics != nil {
			s.metrics.RecordOperation("confirm_payment", "expired")
		}
		s.logger.Info("charge expired at confirmation",
			zap.String("charge_id", charge.ID.String()),
			zap.String("order_id", ord.ID.String()),
		)
		return charge, nil, ErrChargeExpired
	}

	if !ord.IsAwaitingPayment() {
		return nil, nil, fmt.Errorf("%w: order %s is %s", ErrOrderNotAwaitingPayment, ord.ID, ord.Status)
	}

	if err := s.sm.Transition(charge, StatusPaid); err != nil {
		return nil, nil, err
	}
	if err := s.orderSM.Transition(ord, order.StatusPaidInEscrow); err != nil {
		return nil, nil, err
	}
	if err := chargeRepo.Update(ctx, charge); err != nil {
		return nil, nil, fmt.Errorf("update charge: %w", err)
	}
	if err := orderRepo.Update(ctx, ord); err != nil {
		return nil, nil, fmt.Errorf("update order: %w", err)
	}

	err = s.ledger.Record(ctx, tx, ledger.Transfer{
		OrderID:     ord.ID,
		AmountCents: ord.AmountCents,
		From:        ledger.AccountCustomer,
		To:          ledger.AccountEscrow,
		DebitType:   ledger.EntryPaymentConfirmed,
		CreditType:  ledger.EntryEscrowHeld,
		Meta:        map[string]any{"charge_id": charge.ID.String()},
	})
	if err != nil {
		return nil, nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordOperation("confirm_payment", "success")
	}
	s.logger.Info("payment confirmed",
		zap.String("charge_id", charge.ID.String()),
		zap.String("order_id", ord.ID.String()),
		zap.Int64("amount_cents", ord.AmountCents),
	)

	evs := []events.Event{
		events.New(events.ChargePaid, map[string]any{
			"charge_id": charge.ID.String(),
			"order_id":  ord.ID.String(),
			"txid":      charge.TxID,
		}),
		events.New(events.OrderPaidInEscrow, map[string]any{
			"order_id":     ord.ID.String(),
			"amount_cents": ord.AmountCents,
			"currency":     ord.Currency,
		}),
	}
	return charge, evs, nil
}

// Cancel voids a pending charge. No funds have moved for a pending
// charge, so there is no ledger effect and the order keeps waiting for
// a new charge.
func (s *Service) Cancel(ctx context.Context, tx *gorm.DB, chargeID uuid.UUID) (*Charge, error) {
	charge, err := s.repo.WithTx(tx).LockForUpdate(ctx, chargeID)
	if err != nil {
		return nil, err
	}
	if !charge.IsPending() {
		return nil, fmt.Errorf("%w: charge %s is %s", ErrChargeNotPending, charge.ID, charge.Status)
	}
	if err := s.sm.Transition(charge, StatusCanceled); err != nil {
		return nil, err
	}
	if err := s.repo.WithTx(tx).Update(ctx, charge); err != nil {
		return nil, fmt.Errorf("cancel charge: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordOperation("cancel_charge", "success")
	}
	s.logger.Info("charge canceled", zap.String("charge_id", charge.ID.String()))
	return charge, nil
}

// Get returns a charge by ID.
func (s *Service) Get(ctx context.Context, chargeID uuid.UUID) (*Charge, error) {
	return s.repo.Get(ctx, chargeID)
}
