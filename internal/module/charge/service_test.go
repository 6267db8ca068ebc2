package charge

import (
	"context"
	"testing"
	"time"

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
	orders  map[uuid.UUID]*order.Order
	updated int
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
	f.updated++
	f.orders[o.ID] = o
	return nil
}

type fakeChargeRepo struct {
	charges map[uuid.UUID]*Charge
	updated int
}

func newFakeChargeRepo(charges ...*Charge) *fakeChargeRepo {
	repo := &fakeChargeRepo{charges: make(map[uuid.UUID]*Charge)}
	for _, c := range charges {
		repo.charges[c.ID] = c
	}
	return repo
}

func (f *fakeChargeRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeChargeRepo) Create(ctx context.Context, c *Charge) error {
	f.charges[c.ID] = c
	return nil
}

func (f *fakeChargeRepo) Get(ctx context.Context, id uuid.UUID) (*Charge, error) {
	c, ok := f.charges[id]
	if !ok {
		return nil, ErrChargeNotFound
	}
	return c, nil
}

func (f *fakeChargeRepo) LockForUpdate(ctx context.Context, id uuid.UUID) (*Charge, error) {
	return f.Get(ctx, id)
}

func (f *fakeChargeRepo) Update(ctx context.Context, c *Charge) error {
	f.updated++
	f.charges[c.ID] = c
	return nil
}

func (f *fakeChargeRepo) LatestForOrder(ctx context.Context, orderID uuid.UUID) (*Charge, error) {
	var latest *Charge
	for _, c := range f.charges {
		if c.OrderID != orderID {
			continue
		}
		if latest == nil || c.CreatedAt.After(latest.CreatedAt) {
			latest = c
		}
	}
	return latest, nil
}

type fakeLedgerRepo struct {
	entries []ledger.Entry
}

func (f *fakeLedgerRepo) WithTx(tx *gorm.DB) ledger.Repository { return f }

func (f *fakeLedgerRepo) Append(ctx context.Context, e *ledger.Entry) error {
	if e.AmountCents <= 0 {
		return ledger.ErrInvalidAmount
	}
	f.entries = append(f.entries, *e)
	return nil
}

func (f *fakeLedgerRepo) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]ledger.Entry, error) {
	var out []ledger.Entry
	for _, e := range f.entries {
		if e.OrderID == orderID {
			out = append(out, e)
		}
	}
	return out, nil
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

func newTestService(orders *fakeOrderRepo, charges *fakeChargeRepo, entries *fakeLedgerRepo) *Service {
	logger := zap.NewNop()
	ledgerSvc := ledger.NewService(entries, nil, nil, logger)
	return NewService(charges, orders, ledgerSvc, nil, 15*time.Minute, logger)
}

func awaitingOrder(amount int64) *order.Order {
	return &order.Order{
		ID:          uuid.New(),
		Status:      order.StatusAwaitingPayment,
		AmountCents: amount,
		Currency:    "BRL",
	}
}

func TestService_CreatePix(t *testing.T) {
	ctx := context.Background()

	t.Run("creates pending charge with payment window", func(t *testing.T) {
		ord := awaitingOrder(1500)
		svc := newTestService(newFakeOrderRepo(ord), newFakeChargeRepo(), &fakeLedgerRepo{})
		now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		svc.now = func() time.Time { return now }

		ch, evs, err := svc.CreatePix(ctx, nil, ord.ID)
		require.NoError(t, err)

		assert.Equal(t, StatusPending, ch.Status)
		assert.Equal(t, ord.ID, ch.OrderID)
		assert.Equal(t, now.Add(15*time.Minute), ch.ExpiresAt)
		assert.Regexp(t, "^EMV-SANDBOX-[0-9a-f]{32}$", ch.PixEMV)
		assert.Regexp(t, "^[0-9a-f]{32}$", ch.TxID)

		require.Len(t, evs, 1)
		assert.Equal(t, events.ChargeCreated, evs[0].Name)
		assert.Equal(t, ch.ID.String(), evs[0].Data["charge_id"])
		assert.Equal(t, ord.ID.String(), evs[0].Data["order_id"])
	})

	t.Run("order not found", func(t *testing.T) {
		svc := newTestService(newFakeOrderRepo(), newFakeChargeRepo(), &fakeLedgerRepo{})
		_, _, err := svc.CreatePix(ctx, nil, uuid.New())
		assert.ErrorIs(t, err, order.ErrOrderNotFound)
	})

	t.Run("order already paid", func(t *testing.T) {
		ord := awaitingOrder(1500)
		ord.Status = order.StatusPaidInEscrow
		svc := newTestService(newFakeOrderRepo(ord), newFakeChargeRepo(), &fakeLedgerRepo{})

		_, _, err := svc.CreatePix(ctx, nil, ord.ID)
		assert.ErrorIs(t, err, ErrOrderNotAwaitingPayment)
	})
}

func TestService_ConfirmPayment(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	pendingCharge := func(ord *order.Order) *Charge {
		return &Charge{
			ID:        uuid.New(),
			OrderID:   ord.ID,
			Status:    StatusPending,
			ExpiresAt: now.Add(15 * time.Minute),
			TxID:      "deadbeefdeadbeefdeadbeefdeadbeef",
		}
	}

	t.Run("moves funds into escrow", func(t *testing.T) {
		ord := awaitingOrder(1500)
		ch := pendingCharge(ord)
		entries := &fakeLedgerRepo{}
		svc := newTestService(newFakeOrderRepo(ord), newFakeChargeRepo(ch), entries)
		svc.now = func() time.Time { return now }

		got, evs, err := svc.ConfirmPayment(ctx, nil, ch.ID)
		require.NoError(t, err)

		assert.Equal(t, StatusPaid, got.Status)
		assert.Equal(t, order.StatusPaidInEscrow, ord.Status)

		require.Len(t, entries.entries, 2)
		debit, credit := entries.entries[0], entries.entries[1]
		assert.Equal(t, ledger.DirectionDebit, debit.Direction)
		assert.Equal(t, ledger.AccountCustomer, debit.Account)
		assert.Equal(t, ledger.EntryPaymentConfirmed, debit.Type)
		assert.Equal(t, int64(1500), debit.AmountCents)
		assert.Equal(t, ledger.DirectionCredit, credit.Direction)
		assert.Equal(t, ledger.AccountEscrow, credit.Account)
		assert.Equal(t, ledger.EntryEscrowHeld, credit.Type)
		assert.Equal(t, int64(1500), credit.AmountCents)

		require.Len(t, evs, 2)
		assert.Equal(t, events.ChargePaid, evs[0].Name)
		assert.Equal(t, events.OrderPaidInEscrow, evs[1].Name)
	})

	t.Run("expiry wins over confirmation", func(t *testing.T) {
		ord := awaitingOrder(1500)
		ch := pendingCharge(ord)
		entries := &fakeLedgerRepo{}
		svc := newTestService(newFakeOrderRepo(ord), newFakeChargeRepo(ch), entries)
		svc.now = func() time.Time { return ch.ExpiresAt.Add(time.Second) }

		got, evs, err := svc.ConfirmPayment(ctx, nil, ch.ID)
		assert.ErrorIs(t, err, ErrChargeExpired)

		// The charge is expired and persisted; nothing else moves.
		assert.Equal(t, StatusExpired, got.Status)
		assert.Equal(t, order.StatusAwaitingPayment, ord.Status)
		assert.Empty(t, entries.entries)
		assert.Empty(t, evs)
	})

	t.Run("charge not pending", func(t *testing.T) {
		ord := awaitingOrder(1500)
		ch := pendingCharge(ord)
		ch.Status = StatusCanceled
		svc := newTestService(newFakeOrderRepo(ord), newFakeChargeRepo(ch), &fakeLedgerRepo{})
		svc.now = func() time.Time { return now }

		_, _, err := svc.ConfirmPayment(ctx, nil, ch.ID)
		assert.ErrorIs(t, err, ErrChargeNotPending)
	})

	t.Run("order no longer awaiting payment", func(t *testing.T) {
		ord := awaitingOrder(1500)
		ord.Status = order.StatusPaidInEscrow
		ch := pendingCharge(ord)
		entries := &fakeLedgerRepo{}
		svc := newTestService(newFakeOrderRepo(ord), newFakeChargeRepo(ch), entries)
		svc.now = func() time.Time { return now }

		_, _, err := svc.ConfirmPayment(ctx, nil, ch.ID)
		assert.ErrorIs(t, err, ErrOrderNotAwaitingPayment)
		assert.Equal(t, StatusPending, ch.Status)
		assert.Empty(t, entries.entries)
	})

	t.Run("charge not found", func(t *testing.T) {
		svc := newTestService(newFakeOrderRepo(), newFakeChargeRepo(), &fakeLedgerRepo{})
		_, _, err := svc.ConfirmPayment(ctx, nil, uuid.New())
		assert.ErrorIs(t, err, ErrChargeNotFound)
	})
}

func TestService_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("cancels pending charge without ledger effect", func(t *testing.T) {
		ord := awaitingOrder(1500)
		ch := &Charge{ID: uuid.New(), OrderID: ord.ID, Status: StatusPending}
		entries := &fakeLedgerRepo{}
		svc := newTestService(newFakeOrderRepo(ord), newFakeChargeRepo(ch), entries)

		got, err := svc.Cancel(ctx, nil, ch.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusCanceled, got.Status)
		assert.Empty(t, entries.entries)
	})

	t.Run("rejects non-pending charge", func(t *testing.T) {
		ch := &Charge{ID: uuid.New(), Status: StatusPaid}
		svc := newTestService(newFakeOrderRepo(), newFakeChargeRepo(ch), &fakeLedgerRepo{})

		_, err := svc.Cancel(ctx, nil, ch.ID)
		assert.ErrorIs(t, err, ErrChargeNotPending)
	})
}
