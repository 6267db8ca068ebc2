package order

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ventrapay/escrow-server/internal/module/idempotency"
	"github.com/ventrapay/escrow-server/internal/shared/response"
	"gorm.io/gorm"
)

// Handler handles HTTP requests for orders.
type Handler struct {
	service *Service
	guard   *idempotency.Guard
}

// NewHandler creates a new order handler.
func NewHandler(service *Service, guard *idempotency.Guard) *Handler {
	return &Handler{service: service, guard: guard}
}

// RegisterRoutes registers order routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	orders := r.Group("/orders")
	{
		orders.POST("", h.CreateOrder)
		orders.GET("/:id", h.GetOrder)
	}
}

// CreateOrder creates a new escrow order.
//
//	@Summary		Create order
//	@Description	Create a new escrow order awaiting payment
//	@Tags			Order
//	@Accept			json
//	@Produce		json
//	@Param			Idempotency-Key	header		string				false	"Idempotency key"
//	@Param			request			body		CreateOrderRequest	true	"Create order request"
//	@Success		201				{object}	OrderResponse
//	@Failure		400				{object}	response.ErrorResponse
//	@Failure		409				{object}	response.ErrorResponse
//	@Router			/orders [post]
func (h *Handler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if req.Currency == "" {
		req.Currency = "BRL"
	}

	key := c.GetHeader(idempotency.KeyHeader)
	body, status, err := h.guard.Execute(c.Request.Context(), key, c.FullPath(), req,
		func(tx *gorm.DB) (any, int, error) {
			order, err := h.service.Create(c.Request.Context(), tx, req.AmountCents, req.Currency)
			if err != nil {
				return nil, 0, err
			}
			return order.ToResponse(), http.StatusCreated, nil
		})
	if err != nil {
		response.DomainError(c, err)
		return
	}

	c.Data(status, "application/json", body)
}

// GetOrder returns an order with its latest charge.
//
//	@Summary		Get order
//	@Description	Get an order and its most recent charge
//	@Tags			Order
//	@Produce		json
//	@Param			id	path		string	true	"Order ID"
//	@Success		200	{object}	OrderResponse
//	@Failure		404	{object}	response.ErrorResponse
//	@Router			/orders/{id} [get]
func (h *Handler) GetOrder(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid order ID")
		return
	}

	order, charge, err := h.service.GetWithCharge(c.Request.Context(), orderID)
	if err != nil {
		response.DomainError(c, err)
		return
	}

	resp := order.ToResponse()
	resp.Charge = charge
	c.JSON(http.StatusOK, resp)
}
