package webhook

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ventrapay/escrow-server/internal/shared/response"
)

// TestRequest is the payload for a manually triggered test event.
type TestRequest struct {
	Event string         `json:"event"`
	Data  map[string]any `json:"data"`
}

// Handler handles HTTP requests for webhooks.
type Handler struct {
	service *Service
}

// NewHandler creates a new webhook handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers webhook routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/webhooks/test", h.SendTest)
}

// SendTest emits a test event to every configured webhook target.
//
//	@Summary		Test webhook
//	@Description	Emit a test event to all configured webhook targets
//	@Tags			Webhook
//	@Accept			json
//	@Produce		json
//	@Param			request	body		TestRequest	false	"Test event"
//	@Success		202		{object}	map[string]string
//	@Router			/webhooks/test [post]
func (h *Handler) SendTest(c *gin.Context) {
	var req TestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if req.Event == "" {
		req.Event = "webhook.test"
	}
	if req.Data == nil {
		req.Data = map[string]any{}
	}

	h.service.Emit(c.Request.Context(), req.Event, req.Data)
	c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}
