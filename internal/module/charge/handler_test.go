package charge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ventrapay/escrow-server/internal/module/idempotency"
	"github.com/ventrapay/escrow-server/internal/module/order"
	"github.com/ventrapay/escrow-server/internal/shared/events"
)

type fakeIdemRepo struct {
	records map[string]*idempotency.Record
}

func (f *fakeIdemRepo) WithTx(tx *gorm.DB) idempotency.Repository { return f }

func (f *fakeIdemRepo) Get(ctx context.Context, key, endpoint string) (*idempotency.Record, error) {
	return f.records[key+"|"+endpoint], nil
}

func (f *fakeIdemRepo) Create(ctx context.Context, record *idempotency.Record) error {
	f.records[record.Key+"|"+record.Endpoint] = record
	return nil
}

type fakeTxManager struct{}

func (fakeTxManager) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type recordingNotifier struct {
	events []events.Event
}

func (r *recordingNotifier) Dispatch(ctx context.Context, evs []events.Event) {
	r.events = append(r.events, evs...)
}

func newTestRouter(svc *Service, notifier *recordingNotifier, sandbox bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	guard := idempotency.NewGuard(
		&fakeIdemRepo{records: make(map[string]*idempotency.Record)},
		fakeTxManager{}, nil, nil, zap.NewNop(),
	)
	r := gin.New()
	NewHandler(svc, guard, notifier, sandbox).RegisterRoutes(r.Group("/"))
	return r
}

func TestHandler_SimulatePaid(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	setup := func(sandbox bool) (*gin.Engine, *Charge, *order.Order, *recordingNotifier) {
		ord := awaitingOrder(1500)
		ch := &Charge{
			ID:        uuid.New(),
			OrderID:   ord.ID,
			Status:    StatusPending,
			ExpiresAt: now.Add(15 * time.Minute),
		}
		svc := newTestService(newFakeOrderRepo(ord), newFakeChargeRepo(ch), &fakeLedgerRepo{})
		svc.now = func() time.Time { return now }
		notifier := &recordingNotifier{}
		return newTestRouter(svc, notifier, sandbox), ch, ord, notifier
	}

	t.Run("hidden outside sandbox", func(t *testing.T) {
		router, ch, _, _ := setup(false)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/charges/"+ch.ID.String()+"/simulate-paid", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, StatusPending, ch.Status)
	})

	t.Run("confirms payment in sandbox", func(t *testing.T) {
		router, ch, ord, notifier := setup(true)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/charges/"+ch.ID.String()+"/simulate-paid", nil)
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, StatusPaid, ch.Status)
		assert.Equal(t, order.StatusPaidInEscrow, ord.Status)

		require.Len(t, notifier.events, 2)
		assert.Equal(t, events.ChargePaid, notifier.events[0].Name)
		assert.Equal(t, events.OrderPaidInEscrow, notifier.events[1].Name)
	})

	t.Run("expired charge answers 410", func(t *testing.T) {
		router, ch, ord, notifier := setup(true)
		ch.ExpiresAt = now.Add(-time.Minute)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/charges/"+ch.ID.String()+"/simulate-paid", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusGone, w.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "Charge expired", body["detail"])

		assert.Equal(t, StatusExpired, ch.Status)
		assert.Equal(t, order.StatusAwaitingPayment, ord.Status)
		assert.Empty(t, notifier.events)
	})

	t.Run("unknown charge", func(t *testing.T) {
		router, _, _, _ := setup(true)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/charges/"+uuid.NewString()+"/simulate-paid", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestHandler_Cancel(t *testing.T) {
	ord := awaitingOrder(1500)
	ch := &Charge{ID: uuid.New(), OrderID: ord.ID, Status: StatusPending, ExpiresAt: time.Now().Add(time.Hour)}
	svc := newTestService(newFakeOrderRepo(ord), newFakeChargeRepo(ch), &fakeLedgerRepo{})
	router := newTestRouter(svc, &recordingNotifier{}, true)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/charges/"+ch.ID.String()+"/cancel", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, StatusCanceled, ch.Status)

	// A second cancel hits the terminal state
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/charges/"+ch.ID.String()+"/cancel", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusConflict, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "STATE_CONFLICT", body["code"])
	assert.Equal(t, "charge is not pending", body["error"])
}
