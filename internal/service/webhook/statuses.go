package webhook

import (
	"go.uber.org/zap"

	"github.com/mamadbah2/wagateway/internal/domain/models"
	"github.com/mamadbah2/wagateway/internal/metrics"
)

func (d *Dispatcher) handleStatuses(logger *zap.Logger, value models.StatusesValue) {
	if len(value.Statuses) == 0 {
		logger.Warn("statuses change has no statuses")
		return
	}

	for i, raw := range value.Statuses {
		status, err := models.DecodeStatus(raw)
		if err != nil {
			logger.Error("skipping malformed status", zap.Int("index", i), zap.Error(err))
			continue
		}
		metrics.WebhookStatusesTotal.WithLabelValues(models.KnownStatus(status.Status)).Inc()

		fields := []zap.Field{
			zap.String("message_id", status.ID),
			zap.String("status", status.Status),
			zap.String("to", status.RecipientID),
			zap.String("timestamp", status.Timestamp),
		}
		if status.Conversation != nil {
			fields = append(fields, zap.String("conversation_id", status.Conversation.ID))
		}
		if status.Pricing != nil {
			fields = append(fields, zap.String("pricing_category", status.Pricing.Category))
		}
		logger.Info("message status update", fields...)

		for _, e := range status.Errors {
			logger.Error("message delivery error",
				zap.String("message_id", status.ID),
				zap.Int("code", e.Code),
				zap.String("title", e.Title),
				zap.String("detail", e.Message))
		}
	}
}

func (d *Dispatcher) handleTemplateUpdate(logger *zap.Logger, value models.TemplateUpdateValue) {
	if value.TemplateID == "" && value.Event == "" {
		logger.Warn("template update without template id or event")
		return
	}

	logger = logger.With(
		zap.String("template_id", string(value.TemplateID)),
		zap.String("template_name", value.TemplateName),
		zap.String("language", value.TemplateLanguage))

	logger.Info("template update",
		zap.String("event", value.Event),
		zap.String("previous_category", value.PreviousCategory),
		zap.String("new_category", value.NewCategory))

	if value.Reason != "" {
		logger.Info("template update reason", zap.String("reason", value.Reason))
	}

	for _, f := range value.Failures {
		logger.Warn("template update failure",
			zap.Int("code", f.Code),
			zap.String("title", f.Title),
			zap.String("detail", f.Message))
	}
}
