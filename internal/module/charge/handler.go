package charge

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ventrapay/escrow-server/internal/module/idempotency"
	"github.com/ventrapay/escrow-server/internal/shared/events"
	"github.com/ventrapay/escrow-server/internal/shared/response"
)

// Notifier delivers domain events after the owning transaction commits.
type Notifier interface {
	Dispatch(ctx context.Context, evs []events.Event)
}

// Handler handles HTTP requests for charges.
type Handler struct {
	service  *Service
	guard    *idempotency.Guard
	notifier Notifier
	sandbox  bool
}

// NewHandler creates a new charge handler. sandbox controls whether the
// payment simulation endpoint is exposed at all.
func NewHandler(service *Service, guard *idempotency.Guard, notifier Notifier, sandbox bool) *Handler {
	return &Handler{service: service, guard: guard, notifier: notifier, sandbox: sandbox}
}

// RegisterRoutes registers charge routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/orders/:id/charges/pix", h.CreatePix)
	charges := r.Group("/charges")
	{
		charges.POST("/:id/simulate-paid", h.SimulatePaid)
		charges.POST("/:id/cancel", h.Cancel)
	}
}

// CreatePix creates a pix charge for an order.
//
//	@Summary		Create pix charge
//	@Description	Create a pending pix charge for an order awaiting payment
//	@Tags			Charge
//	@Produce		json
//	@Param			Idempotency-Key	header		string	false	"Idempotency key"
//	@Param			id				path		string	true	"Order ID"
//	@Success		201				{object}	ChargeResponse
//	@Failure		404				{object}	response.ErrorResponse
//	@Failure		409				{object}	response.ErrorResponse
//	@Router			/orders/{id}/charges/pix [post]
func (h *Handler) CreatePix(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid order ID")
		return
	}

	var evs []events.Event
	key := c.GetHeader(idempotency.KeyHeader)
	body, status, err := h.guard.Execute(c.Request.Context(), key, c.FullPath(), gin.H{"order_id": orderID},
		func(tx *gorm.DB) (any, int, error) {
			charge, created, err := h.service.CreatePix(c.Request.Context(), tx, orderID)
			if err != nil {
				return nil, 0, err
			}
			evs = created
			return charge.ToResponse(), http.StatusCreated, nil
		})
	if err != nil {
		response.DomainError(c, err)
		return
	}

	h.notifier.Dispatch(c.Request.Context(), evs)
	c.Data(status, "application/json", body)
}

// SimulatePaid confirms payment of a pending charge. Sandbox only; the
// route answers 404 in any other environment so it is indistinguishable
// from an unknown path.
//
//	@Summary		Simulate payment
//	@Description	Mark a pending charge as paid and move funds into escrow (sandbox only)
//	@Tags			Charge
//	@Produce		json
//	@Param			Idempotency-Key	header		string	false	"Idempotency key"
//	@Param			id				path		string	true	"Charge ID"
//	@Success		200				{object}	ChargeResponse
//	@Failure		404				{object}	response.ErrorResponse
//	@Failure		409				{object}	response.ErrorResponse
//	@Failure		410				{object}	response.ErrorResponse
//	@Router			/charges/{id}/simulate-paid [post]
func (h *Handler) SimulatePaid(c *gin.Context) {
	if !h.sandbox {
		response.NotFound(c, "not found")
		return
	}

	chargeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid charge ID")
		return
	}

	var evs []events.Event
	key := c.GetHeader(idempotency.KeyHeader)
	body, status, err := h.guard.Execute(c.Request.Context(), key, c.FullPath(), gin.H{"charge_id": chargeID},
		func(tx *gorm.DB) (any, int, error) {
			charge, confirmed, err := h.service.ConfirmPayment(c.Request.Context(), tx, chargeID)
			if errors.Is(err, ErrChargeExpired) {
				// The EXPIRED transition must commit, so this is a
				// stored result rather than a rollback.
				return gin.H{"detail": "Charge expired"}, http.StatusGone, nil
			}
			if err != nil {
				return nil, 0, err
			}
			evs = confirmed
			return charge.ToResponse(), http.StatusOK, nil
		})
	if err != nil {
		response.DomainError(c, err)
		return
	}

	h.notifier.Dispatch(c.Request.Context(), evs)
	c.Data(status, "application/json", body)
}

// Cancel voids a pending charge.
//
//	@Summary		Cancel charge
//	@Description	Cancel a pending charge; no funds are affected
//	@Tags			Charge
//	@Produce		json
//	@Param			Idempotency-Key	header		string	false	"Idempotency key"
//	@Param			id				path		string	true	"Charge ID"
//	@Success		200				{object}	ChargeResponse
//	@Failure		404				{object}	response.ErrorResponse
//	@Failure		409				{object}	response.ErrorResponse
//	@Router			/charges/{id}/cancel [post]
func (h *Handler) Cancel(c *gin.Context) {
	chargeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid charge ID")
		return
	}

	key := c.GetHeader(idempotency.KeyHeader)
	body, status, err := h.guard.Execute(c.Request.Context(), key, c.FullPath(), gin.H{"charge_id": chargeID},
		func(tx *gorm.DB) (any, int, error) {
			charge, err := h.service.Cancel(c.Request.Context(), tx, chargeID)
			if err != nil {
				return nil, 0, err
			}
			return charge.ToResponse(), http.StatusOK, nil
		})
	if err != nil {
		response.DomainError(c, err)
		return
	}

	c.Data(status, "application/json", body)
}
