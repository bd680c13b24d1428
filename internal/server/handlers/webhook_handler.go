package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/exovet/supportbot/internal/domain/models"
	service "github.com/exovet/supportbot/internal/service/telegram"
)

const secretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// WebhookHandler handles inbound Telegram webhook events and outbound
// operator messages.
type WebhookHandler struct {
	svc    service.MessagingService
	secret string
	logger *zap.Logger
}

// NewWebhookHandler constructs the HTTP handler adapter.
func NewWebhookHandler(svc service.MessagingService, secret string, logger *zap.Logger) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{svc: svc, secret: secret, logger: logger}
}

// authorized checks the shared secret header. Telegram sends it on
// webhook calls when the webhook was registered with a secret token;
// operator calls must present the same header.
func (h *WebhookHandler) authorized(c *gin.Context) bool {
	if h.secret == "" {
		return true
	}
	return c.GetHeader(secretTokenHeader) == h.secret
}

// Receive ingests webhook POST callbacks from Telegram.
func (h *WebhookHandler) Receive(c *gin.Context) {
	if !h.authorized(c) {
		h.logger.Warn("webhook secret mismatch", zap.String("client_ip", c.ClientIP()))
		c.Status(http.StatusForbidden)
		return
	}

	var update models.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		h.logger.Warn("invalid webhook payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	if err := h.svc.HandleUpdate(c.Request.Context(), update); err != nil {
		// Telegram re-delivers the same update on non-2xx responses, and
		// these failures are scoped to one user's conversation. Ack anyway.
		h.logger.Error("failed processing update", zap.Error(err), zap.Int64("update_id", update.UpdateID))
	}

	c.Status(http.StatusOK)
}

// SendMessage allows sending outbound automation or manual responses.
func (h *WebhookHandler) SendMessage(c *gin.Context) {
	if !h.authorized(c) {
		h.logger.Warn("outbound secret mismatch", zap.String("client_ip", c.ClientIP()))
		c.Status(http.StatusForbidden)
		return
	}

	var req models.OutboundMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid outbound payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.svc.SendOutbound(c.Request.Context(), req); err != nil {
		h.logger.Error("failed sending outbound", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to send message"})
		return
	}

	c.Status(http.StatusAccepted)
}
