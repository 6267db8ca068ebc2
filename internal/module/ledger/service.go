package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/ventrapay/escrow-server/internal/shared/metrics"
)

// OrderChecker reports whether an order exists. Wired to the order
// repository in the app layer.
type OrderChecker interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// Transfer describes one balanced fund movement between two accounts.
// Recording it appends a DEBIT against From and a CREDIT against To
// for the same amount, so the ledger stays balanced by construction.
// The two legs may carry distinct entry types: confirming a payment
// records PAYMENT_CONFIRMED on the customer debit and ESCROW_HELD on
// the escrow credit.
type Transfer struct {
	OrderID     uuid.UUID
	AmountCents int64
	From        Account
	To          Account
	DebitType   EntryType
	CreditType  EntryType
	Meta        map[string]any
}

type Service struct {
	repo    Repository
	orders  OrderChecker
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewService(repo Repository, orders OrderChecker, m *metrics.Metrics, logger *zap.Logger) *Service {
	return &Service{
		repo:    repo,
		orders:  orders,
		metrics: m,
		logger:  logger,
	}
}

// Record appends the two legs of a transfer inside the caller's
// transaction. Either both legs commit or neither does.
func (s *Service) Record(ctx context.Context, tx *gorm.DB, t Transfer) error {
	if t.AmountCents <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidAmount, t.AmountCents)
	}

	var meta []byte
	if t.Meta != nil {
		var err error
		meta, err = json.Marshal(t.Meta)
		if err != nil {
			return fmt.Errorf("marshal ledger meta: %w", err)
		}
	}

	repo := s.repo.WithTx(tx)
	legs := []Entry{
		{OrderID: t.OrderID, Type: t.DebitType, AmountCents: t.AmountCents, Direction: DirectionDebit, Account: t.From, Meta: datatypes.JSON(meta)},
		{OrderID: t.OrderID, Type: t.CreditType, AmountCents: t.AmountCents, Direction: DirectionCredit, Account: t.To, Meta: datatypes.JSON(meta)},
	}
	for i := range legs {
		if err := repo.Append(ctx, &legs[i]); err != nil {
			return fmt.Errorf("append ledger entry: %w", err)
		}
		if s.metrics != nil {
			s.metrics.RecordLedgerEntry(string(legs[i].Account), string(legs[i].Direction))
		}
	}

	s.logger.Info("ledger transfer recorded",
		zap.String("order_id", t.OrderID.String()),
		zap.Int64("amount_cents", t.AmountCents),
		zap.String("from", string(t.From)),
		zap.String("to", string(t.To)),
	)
	return nil
}

// ListByOrder returns the entries for an order in append order.
func (s *Service) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]Entry, error) {
	ok, err := s.orders.Exists(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrOrderNotFound
	}
	return s.repo.ListByOrder(ctx, orderID)
}

// Balance reports the merchant and escrow positions derived from the
// ledger. Available funds are whatever has been released to the
// merchant; escrow is what is still held.
func (s *Service) Balance(ctx context.Context) (*BalanceResponse, error) {
	available, err := s.repo.BalanceOf(ctx, AccountMerchant)
	if err != nil {
		return nil, err
	}
	escrow, err := s.repo.BalanceOf(ctx, AccountEscrow)
	if err != nil {
		return nil, err
	}
	return &BalanceResponse{
		AvailableCents: available,
		EscrowCents:    escrow,
		TotalCents:     available + escrow,
	}, nil
}
