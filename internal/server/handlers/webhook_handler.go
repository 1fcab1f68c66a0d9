package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/wagateway/internal/domain/models"
	"github.com/mamadbah2/wagateway/internal/security"
	"github.com/mamadbah2/wagateway/internal/service/webhook"
)

// WebhookHandler handles Meta's webhook verification and event callbacks.
type WebhookHandler struct {
	svc    webhook.Handler
	logger *zap.Logger
}

// NewWebhookHandler constructs the HTTP handler adapter.
func NewWebhookHandler(svc webhook.Handler, logger *zap.Logger) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{svc: svc, logger: logger}
}

// Verify responds to Meta's webhook verification challenge.
func (h *WebhookHandler) Verify(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	resp, err := h.svc.VerifySubscription(mode, token, challenge)
	if err != nil {
		c.String(http.StatusForbidden, "verification failed")
		return
	}

	c.String(http.StatusOK, resp)
}

// Receive ingests webhook POST callbacks from Meta. The raw body is kept for
// signature verification; once the signature passes the delivery is always
// acknowledged so Meta does not redeliver it.
func (h *WebhookHandler) Receive(c *gin.Context) {
	rawBody, err := c.GetRawData()
	if err != nil {
		h.logger.Warn("failed to read webhook body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	var payload models.WebhookPayload
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		h.logger.Warn("invalid webhook payload", zap.Error(err), zap.Int("size", len(rawBody)))
		payload = models.WebhookPayload{}
	}

	if err := h.svc.Handle(c.Request.Context(), payload, rawBody, c.GetHeader(security.SignatureHeader)); err != nil {
		if errors.Is(err, security.ErrUnauthorized) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
			return
		}
		h.logger.Error("failed processing webhook", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process webhook"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "received"})
}
