package webhook

import (
	"context"

	"go.uber.org/zap"

	"github.com/mamadbah2/wagateway/internal/domain/models"
	"github.com/mamadbah2/wagateway/internal/metrics"
	client "github.com/mamadbah2/wagateway/pkg/clients/whatsapp"
)

func (d *Dispatcher) handleMessages(ctx context.Context, logger *zap.Logger, value models.MessagesValue) {
	businessID := value.Metadata.PhoneNumberID
	if businessID == "" {
		businessID = d.cfg.PhoneNumberID
	}

	for i, raw := range value.Contacts {
		contact, err := models.DecodeContact(raw)
		if err != nil {
			logger.Warn("skipping malformed contact", zap.Int("index", i), zap.Error(err))
			continue
		}
		logger.Debug("webhook contact", zap.String("wa_id", contact.WaID), zap.String("name", contact.Profile.Name))
	}

	if len(value.Messages) == 0 {
		logger.Warn("messages change has no messages", zap.String("phone_number_id", businessID))
		return
	}

	for i, raw := range value.Messages {
		msg, err := models.DecodeMessage(raw)
		if err != nil {
			metrics.WebhookMessagesTotal.WithLabelValues("malformed").Inc()
			logger.Error("skipping malformed message", zap.Int("index", i), zap.Error(err))
			continue
		}
		d.handleInboundMessage(ctx, logger, businessID, msg)
	}
}

func (d *Dispatcher) handleInboundMessage(ctx context.Context, logger *zap.Logger, businessID string, msg models.InboundMessage) {
	logger = logger.With(zap.String("message_id", msg.ID), zap.String("from", msg.From), zap.String("type", msg.Type))

	if msg.From == "" {
		metrics.WebhookMessagesTotal.WithLabelValues("unknown_sender").Inc()
		logger.Warn("inbound message without sender, skipping")
		return
	}

	if msg.From == businessID {
		metrics.WebhookMessagesTotal.WithLabelValues("business").Inc()
		logger.Debug("skipping business-originated message")
		return
	}

	logger.Info("inbound message received",
		zap.String("text", extractMessageText(msg)),
		zap.String("reply_to", msg.ReplyTo()))

	// Read receipts and the auto-reply are best effort: failures are logged
	// and never stop the rest of the batch.
	if err := d.outbound.MarkRead(ctx, msg.ID); err != nil {
		logger.Warn("failed to mark message as read", zap.Error(err))
	}

	_, err := d.outbound.SendText(ctx, client.SendTextMessageRequest{
		To:         msg.From,
		Body:       d.cfg.AutoReplyText,
		PreviewURL: true,
	})
	if err != nil {
		metrics.WebhookMessagesTotal.WithLabelValues("reply_failed").Inc()
		logger.Error("failed to send auto-reply", zap.String("to", msg.From), zap.Error(err))
		return
	}

	metrics.WebhookMessagesTotal.WithLabelValues("replied").Inc()
	logger.Info("auto-reply sent", zap.String("to", msg.From))
}

// extractMessageText returns a short human-readable rendering of msg for logs.
func extractMessageText(msg models.InboundMessage) string {
	switch {
	case msg.Text != nil:
		return msg.Text.Body
	case msg.Interactive != nil && msg.Interactive.ButtonReply != nil:
		return msg.Interactive.ButtonReply.Title
	case msg.Interactive != nil && msg.Interactive.ListReply != nil:
		return msg.Interactive.ListReply.Title
	case msg.Button != nil:
		return msg.Button.Text
	case msg.Location != nil:
		return msg.Location.Name
	}

	for _, media := range []*models.MediaContent{msg.Image, msg.Video, msg.Audio, msg.Document, msg.Sticker} {
		if media != nil {
			return media.Caption
		}
	}
	return ""
}
