package settings

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ventrapay/escrow-server/internal/shared/response"
)

// UpdateAPIKeyRequest is the payload for rotating the API key.
type UpdateAPIKeyRequest struct {
	APIKey string `json:"api_key" binding:"required"`
}

// Handler handles HTTP requests for runtime settings.
type Handler struct {
	store *Store
}

// NewHandler creates a new settings handler.
func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes registers settings routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/settings/api-key", h.UpdateAPIKey)
}

// UpdateAPIKey rotates the API key at runtime. The caller must already
// hold the current key; the new one takes effect immediately.
//
//	@Summary		Rotate API key
//	@Description	Replace the API key used by the X-API-Key check
//	@Tags			Settings
//	@Accept			json
//	@Produce		json
//	@Param			request	body		UpdateAPIKeyRequest	true	"New API key"
//	@Success		200		{object}	map[string]bool
//	@Failure		400		{object}	response.ErrorResponse
//	@Router			/settings/api-key [post]
func (h *Handler) UpdateAPIKey(c *gin.Context) {
	var req UpdateAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.store.SetAPIKey(req.APIKey); err != nil {
		response.DomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
