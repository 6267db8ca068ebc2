package escrow

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ventrapay/escrow-server/internal/module/idempotency"
	"github.com/ventrapay/escrow-server/internal/module/order"
	"github.com/ventrapay/escrow-server/internal/shared/events"
	"github.com/ventrapay/escrow-server/internal/shared/response"
)

// Notifier delivers domain events after the owning transaction commits.
type Notifier interface {
	Dispatch(ctx context.Context, evs []events.Event)
}

// Handler handles HTTP requests for escrow settlement.
type Handler struct {
	service  *Service
	guard    *idempotency.Guard
	notifier Notifier
}

// NewHandler creates a new escrow handler.
func NewHandler(service *Service, guard *idempotency.Guard, notifier Notifier) *Handler {
	return &Handler{service: service, guard: guard, notifier: notifier}
}

// RegisterRoutes registers escrow settlement routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/orders/:id/release", h.Release)
	r.POST("/orders/:id/refund", h.Refund)
}

// Release pays escrowed funds to the merchant.
//
//	@Summary		Release escrow
//	@Description	Release escrowed funds for an order to the merchant
//	@Tags			Escrow
//	@Produce		json
//	@Param			Idempotency-Key	header		string	false	"Idempotency key"
//	@Param			id				path		string	true	"Order ID"
//	@Success		200				{object}	order.OrderResponse
//	@Failure		404				{object}	response.ErrorResponse
//	@Failure		409				{object}	response.ErrorResponse
//	@Router			/orders/{id}/release [post]
func (h *Handler) Release(c *gin.Context) {
	h.settle(c, h.service.Release)
}

// Refund returns escrowed funds to the customer.
//
//	@Summary		Refund escrow
//	@Description	Refund escrowed funds for an order to the customer
//	@Tags			Escrow
//	@Produce		json
//	@Param			Idempotency-Key	header		string	false	"Idempotency key"
//	@Param			id				path		string	true	"Order ID"
//	@Success		200				{object}	order.OrderResponse
//	@Failure		404				{object}	response.ErrorResponse
//	@Failure		409				{object}	response.ErrorResponse
//	@Router			/orders/{id}/refund [post]
func (h *Handler) Refund(c *gin.Context) {
	h.settle(c, h.service.Refund)
}

type settleFunc func(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (*order.Order, []events.Event, error)

func (h *Handler) settle(c *gin.Context, fn settleFunc) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid order ID")
		return
	}

	var evs []events.Event
	key := c.GetHeader(idempotency.KeyHeader)
	body, status, err := h.guard.Execute(c.Request.Context(), key, c.FullPath(), gin.H{"order_id": orderID},
		func(tx *gorm.DB) (any, int, error) {
			ord, settled, err := fn(c.Request.Context(), tx, orderID)
			if err != nil {
				return nil, 0, err
			}
			evs = settled
			return ord.ToResponse(), http.StatusOK, nil
		})
	if err != nil {
		response.DomainError(c, err)
		return
	}

	h.notifier.Dispatch(c.Request.Context(), evs)
	c.Data(status, "application/json", body)
}
