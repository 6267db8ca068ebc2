package escrow

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ventrapay/escrow-server/internal/module/ledger"
	"github.com/ventrapay/escrow-server/internal/module/order"
	"github.com/ventrapay/escrow-server/internal/shared/events"
)

type fakeOrderRepo struct {
	orders map[uuid.UUID]*order.Order
}

func newFakeOrderRepo(orders ...*order.Order) *fakeOrderRepo {
	repo := &fakeOrderRepo{orders: make(map[uuid.UUID]*order.Order)}
	for _, o := range orders {
		repo.orders[o.ID] = o
	}
	return repo
}

func (f *fakeOrderRepo) WithTx(tx *gorm.DB) order.Repository { return f }

func (f *fakeOrderRepo) Create(ctx context.Context, o *order.Order) error {
	f.orders[o.ID] = o
	return nil
}

func (f *fakeOrderRepo) Get(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	return o, nil
}

func (f *fakeOrderRepo) LockForUpdate(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return f.Get(ctx, id)
}

func (f *fakeOrderRepo) Update(ctx context.Context, o *order.Order) error {
	f.orders[o.ID] = o
	return nil
}

type fakeLedgerRepo struct {
	entries []ledger.Entry
}

func (f *fakeLedgerRepo) WithTx(tx *gorm.DB) ledger.Repository { return f }

func (f *fakeLedgerRepo) Append(ctx context.Context, e *ledger.Entry) error {
	f.entries = append(f.entries, *e)
	return nil
}

func (f *fakeLedgerRepo) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]ledger.Entry, error) {
	return f.entries, nil
}

func (f *fakeLedgerRepo) BalanceOf(ctx context.Context, account ledger.Account) (int64, error) {
	var balance int64
	for _, e := range f.entries {
		if e.Account != account {
			continue
		}
		if e.Direction == ledger.DirectionCredit {
			balance += e.AmountCents
		} else {
			balance -= e.AmountCents
		}
	}
	return balance, nil
}

func newTestService(orders *fakeOrderRepo, entries *fakeLedgerRepo) *Service {
	logger := zap.NewNop()
	return NewService(orders, ledger.NewService(entries, nil, nil, logger), nil, logger)
}

func escrowedOrder(amount int64) *order.Order {
	return &order.Order{
		ID:          uuid.New(),
		Status:      order.StatusPaidInEscrow,
		AmountCents: amount,
		Currency:    "BRL",
	}
}

func TestService_Release(t *testing.T) {
	ctx := context.Background()

	t.Run("pays the merchant", func(t *testing.T) {
		ord := escrowedOrder(2000)
		entries := &fakeLedgerRepo{}
		svc := newTestService(newFakeOrderRepo(ord), entries)

		got, evs, err := svc.Release(ctx, nil, ord.ID)
		require.NoError(t, err)

		assert.Equal(t, order.StatusReleased, got.Status)

		require.Len(t, entries.entries, 2)
		debit, credit := entries.entries[0], entries.entries[1]
		assert.Equal(t, ledger.AccountEscrow, debit.Account)
		assert.Equal(t, ledger.DirectionDebit, debit.Direction)
		assert.Equal(t, ledger.EntryReleasedToMerchant, debit.Type)
		assert.Equal(t, ledger.AccountMerchant, credit.Account)
		assert.Equal(t, ledger.DirectionCredit, credit.Direction)
		assert.Equal(t, int64(2000), credit.AmountCents)

		require.Len(t, evs, 1)
		assert.Equal(t, events.OrderReleased, evs[0].Name)
	})

	t.Run("disputed order gets a distinct error", func(t *testing.T) {
		ord := escrowedOrder(2000)
		ord.Status = order.StatusDisputed
		svc := newTestService(newFakeOrderRepo(ord), &fakeLedgerRepo{})

		_, _, err := svc.Release(ctx, nil, ord.ID)
		assert.ErrorIs(t, err, order.ErrOrderDisputed)
	})

	t.Run("rejects order not in escrow", func(t *testing.T) {
		ord := escrowedOrder(2000)
		ord.Status = order.StatusAwaitingPayment
		entries := &fakeLedgerRepo{}
		svc := newTestService(newFakeOrderRepo(ord), entries)

		_, _, err := svc.Release(ctx, nil, ord.ID)
		assert.ErrorIs(t, err, order.ErrOrderNotInEscrow)
		assert.Empty(t, entries.entries)
	})

	t.Run("release is not repeatable", func(t *testing.T) {
		ord := escrowedOrder(2000)
		entries := &fakeLedgerRepo{}
		svc := newTestService(newFakeOrderRepo(ord), entries)

		_, _, err := svc.Release(ctx, nil, ord.ID)
		require.NoError(t, err)

		_, _, err = svc.Release(ctx, nil, ord.ID)
		assert.ErrorIs(t, err, order.ErrOrderNotInEscrow)
		assert.Len(t, entries.entries, 2)
	})

	t.Run("order not found", func(t *testing.T) {
		svc := newTestService(newFakeOrderRepo(), &fakeLedgerRepo{})
		_, _, err := svc.Release(ctx, nil, uuid.New())
		assert.ErrorIs(t, err, order.ErrOrderNotFound)
	})
}

func TestService_Refund(t *testing.T) {
	ctx := context.Background()

	t.Run("returns funds to the customer", func(t *testing.T) {
		ord := escrowedOrder(2000)
		entries := &fakeLedgerRepo{}
		svc := newTestService(newFakeOrderRepo(ord), entries)

		got, evs, err := svc.Refund(ctx, nil, ord.ID)
		require.NoError(t, err)

		assert.Equal(t, order.StatusRefunded, got.Status)

		require.Len(t, entries.entries, 2)
		debit, credit := entries.entries[0], entries.entries[1]
		assert.Equal(t, ledger.AccountEscrow, debit.Account)
		assert.Equal(t, ledger.EntryRefundedToCustomer, debit.Type)
		assert.Equal(t, ledger.AccountCustomer, credit.Account)
		assert.Equal(t, ledger.EntryRefundedToCustomer, credit.Type)

		require.Len(t, evs, 1)
		assert.Equal(t, events.OrderRefunded, evs[0].Name)
	})

	t.Run("refund after release is rejected", func(t *testing.T) {
		ord := escrowedOrder(2000)
		svc := newTestService(newFakeOrderRepo(ord), &fakeLedgerRepo{})

		_, _, err := svc.Release(ctx, nil, ord.ID)
		require.NoError(t, err)

		_, _, err = svc.Refund(ctx, nil, ord.ID)
		assert.ErrorIs(t, err, order.ErrOrderNotInEscrow)
	})

	t.Run("escrow account nets to zero after refund", func(t *testing.T) {
		ord := escrowedOrder(2000)
		entries := &fakeLedgerRepo{}
		// Seed the escrow hold that confirmation would have written.
		entries.entries = append(entries.entries,
			ledger.Entry{OrderID: ord.ID, Type: ledger.EntryPaymentConfirmed, AmountCents: 2000, Direction: ledger.DirectionDebit, Account: ledger.AccountCustomer},
			ledger.Entry{OrderID: ord.ID, Type: ledger.EntryEscrowHeld, AmountCents: 2000, Direction: ledger.DirectionCredit, Account: ledger.AccountEscrow},
		)
		svc := newTestService(newFakeOrderRepo(ord), entries)

		_, _, err := svc.Refund(ctx, nil, ord.ID)
		require.NoError(t, err)

		escrowBalance, err := entries.BalanceOf(ctx, ledger.AccountEscrow)
		require.NoError(t, err)
		assert.Equal(t, int64(0), escrowBalance)

		customerBalance, err := entries.BalanceOf(ctx, ledger.AccountCustomer)
		require.NoError(t, err)
		assert.Equal(t, int64(0), customerBalance)
	})
}
