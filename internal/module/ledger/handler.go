package ledger

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ventrapay/escrow-server/internal/shared/response"
)

// Handler handles HTTP requests for ledger queries.
type Handler struct {
	service *Service
}

// NewHandler creates a new ledger handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers ledger routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/orders/:id/ledger", h.ListByOrder)
	r.GET("/balance", h.Balance)
}

// ListByOrder returns the ledger entries for one order.
//
//	@Summary		Order ledger
//	@Description	List ledger entries for an order in append order
//	@Tags			Ledger
//	@Produce		json
//	@Param			id	path		string	true	"Order ID"
//	@Success		200	{array}		EntryResponse
//	@Failure		404	{object}	response.ErrorResponse
//	@Router			/orders/{id}/ledger [get]
func (h *Handler) ListByOrder(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid order ID")
		return
	}

	entries, err := h.service.ListByOrder(c.Request.Context(), orderID)
	if err != nil {
		response.DomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, ToResponseList(entries))
}

// Balance returns the merchant and escrow balances.
//
//	@Summary		Balance
//	@Description	Merchant and escrow balances derived from the ledger
//	@Tags			Ledger
//	@Produce		json
//	@Success		200	{object}	BalanceResponse
//	@Router			/balance [get]
func (h *Handler) Balance(c *gin.Context) {
	balance, err := h.service.Balance(c.Request.Context())
	if err != nil {
		response.InternalError(c, "failed to compute balance")
		return
	}

	c.JSON(http.StatusOK, balance)
}
