package app

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/ventrapay/escrow-server/internal/module/charge"
	"github.com/ventrapay/escrow-server/internal/module/ledger"
	"github.com/ventrapay/escrow-server/internal/module/order"
)

// orderChargeAdapter adapts the charge repository to order.ChargeSource.
// Defined in the app package to avoid cyclic imports between modules.
type orderChargeAdapter struct {
	repo charge.Repository
}

func newOrderChargeAdapter(repo charge.Repository) *orderChargeAdapter {
	return &orderChargeAdapter{repo: repo}
}

// LatestForOrder returns a summary of the order's most recent charge.
func (a *orderChargeAdapter) LatestForOrder(ctx context.Context, orderID uuid.UUID) (*order.ChargeSummary, error) {
	ch, err := a.repo.LatestForOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if ch == nil {
		return nil, nil
	}
	return &order.ChargeSummary{
		ID:        ch.ID,
		Status:    string(ch.Status),
		ExpiresAt: ch.ExpiresAt,
		PixEMV:    ch.PixEMV,
		TxID:      ch.TxID,
	}, nil
}

// ledgerOrderAdapter adapts the order repository to ledger.OrderChecker.
type ledgerOrderAdapter struct {
	repo order.Repository
}

func newLedgerOrderAdapter(repo order.Repository) *ledgerOrderAdapter {
	return &ledgerOrderAdapter{repo: repo}
}

// Exists reports whether the order is present.
func (a *ledgerOrderAdapter) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	_, err := a.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

var _ order.ChargeSource = (*orderChargeAdapter)(nil)
var _ ledger.OrderChecker = (*ledgerOrderAdapter)(nil)
