package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/wagateway/internal/domain/models"
	"github.com/mamadbah2/wagateway/internal/service/messages"
	client "github.com/mamadbah2/wagateway/pkg/clients/whatsapp"
)

// MessagesHandler exposes the outbound message operations over HTTP.
type MessagesHandler struct {
	svc    messages.Sender
	logger *zap.Logger
}

// NewMessagesHandler constructs the HTTP handler adapter.
func NewMessagesHandler(svc messages.Sender, logger *zap.Logger) *MessagesHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MessagesHandler{svc: svc, logger: logger}
}

// SendText handles POST /messages/text.
func (h *MessagesHandler) SendText(c *gin.Context) {
	var req models.SendTextRequest
	if !h.bind(c, &req) {
		return
	}

	previewURL := false
	if req.PreviewURL != nil {
		previewURL = *req.PreviewURL
	}

	resp, err := h.svc.SendText(c.Request.Context(), client.SendTextMessageRequest{
		To:         req.To,
		Body:       req.Body,
		PreviewURL: previewURL,
	})
	h.respond(c, resp, err)
}

// SendTemplate handles POST /messages/template.
func (h *MessagesHandler) SendTemplate(c *gin.Context) {
	var req models.SendTemplateRequest
	if !h.bind(c, &req) {
		return
	}

	resp, err := h.svc.SendTemplate(c.Request.Context(), client.SendTemplateMessageRequest{
		To:           req.To,
		TemplateName: req.TemplateName,
		LanguageCode: req.Language,
		Components:   req.Components,
	})
	h.respond(c, resp, err)
}

// SendMedia handles POST /messages/media.
func (h *MessagesHandler) SendMedia(c *gin.Context) {
	var req models.SendMediaRequest
	if !h.bind(c, &req) {
		return
	}

	var source client.MediaSource
	if req.Link != "" {
		source = client.MediaLink(req.Link)
	} else {
		source = client.MediaID(req.ID)
	}

	resp, err := h.svc.SendMedia(c.Request.Context(), client.SendMediaMessageRequest{
		To:      req.To,
		Type:    client.MediaType(req.Type),
		Source:  source,
		Caption: req.Caption,
	})
	h.respond(c, resp, err)
}

// SendInteractive handles POST /messages/interactive.
func (h *MessagesHandler) SendInteractive(c *gin.Context) {
	var req models.SendInteractiveRequest
	if !h.bind(c, &req) {
		return
	}

	resp, err := h.svc.SendInteractive(c.Request.Context(), client.SendInteractiveMessageRequest{
		To:            req.To,
		RecipientType: req.RecipientType,
		Interactive:   req.Interactive,
	})
	h.respond(c, resp, err)
}

// SendCustom handles POST /messages/custom.
func (h *MessagesHandler) SendCustom(c *gin.Context) {
	var req models.SendCustomRequest
	if !h.bind(c, &req) {
		return
	}

	resp, err := h.svc.SendCustom(c.Request.Context(), req.Payload)
	h.respond(c, resp, err)
}

// MarkRead handles POST /messages/mark-read. Success has no body.
func (h *MessagesHandler) MarkRead(c *gin.Context) {
	var req models.MarkReadRequest
	if !h.bind(c, &req) {
		return
	}

	if err := h.svc.MarkRead(c.Request.Context(), req.MessageID); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Profile handles GET /messages/profile.
func (h *MessagesHandler) Profile(c *gin.Context) {
	resp, err := h.svc.BusinessProfile(c.Request.Context())
	h.respond(c, resp, err)
}

// Templates handles GET /messages/templates.
func (h *MessagesHandler) Templates(c *gin.Context) {
	var q models.ListTemplatesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query", "details": err.Error()})
		return
	}

	resp, err := h.svc.ListTemplates(c.Request.Context(), client.ListTemplatesParams{Limit: q.Limit, After: q.After})
	h.respond(c, resp, err)
}

func (h *MessagesHandler) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		h.logger.Warn("invalid request body", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return false
	}
	return true
}

func (h *MessagesHandler) respond(c *gin.Context, resp client.Response, err error) {
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// fail maps service errors onto HTTP responses. Provider failures keep the
// provider status and body so callers can act on rejections.
func (h *MessagesHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, client.ErrNotConfigured):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, client.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	if apiErr, ok := client.AsAPIError(err); ok {
		status := apiErr.StatusCode
		if status < http.StatusBadRequest {
			status = http.StatusInternalServerError
		}
		c.JSON(status, gin.H{"message": "WhatsApp API request failed", "details": apiErr.Details})
		return
	}

	h.logger.Error("unexpected outbound failure", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
