package messages

import (
	"context"
	"errors"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/wagateway/internal/metrics"
	client "github.com/mamadbah2/wagateway/pkg/clients/whatsapp"
)

const defaultTimeout = 15 * time.Second

// Sender describes the outbound operations the HTTP layer and the webhook
// dispatcher can perform.
type Sender interface {
	SendText(ctx context.Context, req client.SendTextMessageRequest) (client.Response, error)
	SendTemplate(ctx context.Context, req client.SendTemplateMessageRequest) (client.Response, error)
	SendMedia(ctx context.Context, req client.SendMediaMessageRequest) (client.Response, error)
	SendInteractive(ctx context.Context, req client.SendInteractiveMessageRequest) (client.Response, error)
	SendCustom(ctx context.Context, payload map[string]any) (client.Response, error)
	MarkRead(ctx context.Context, messageID string) error
	BusinessProfile(ctx context.Context) (client.Response, error)
	ListTemplates(ctx context.Context, params client.ListTemplatesParams) (client.Response, error)
}

// Service bounds every WhatsApp Cloud API call with a timeout and records
// its outcome. Calls are made exactly once.
type Service struct {
	client  client.Client
	timeout time.Duration
	logger  *zap.Logger
}

// NewService wires a new outbound message service.
func NewService(c client.Client, timeout time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Service{client: c, timeout: timeout, logger: logger}
}

// SendText sends a plain text message.
func (s *Service) SendText(ctx context.Context, req client.SendTextMessageRequest) (client.Response, error) {
	return s.call(ctx, "send_text", []zap.Field{zap.String("to", req.To), zap.Int("length", len(req.Body))},
		func(ctx context.Context) (client.Response, error) {
			return s.client.SendTextMessage(ctx, req)
		})
}

// SendTemplate sends an approved template.
func (s *Service) SendTemplate(ctx context.Context, req client.SendTemplateMessageRequest) (client.Response, error) {
	return s.call(ctx, "send_template", []zap.Field{zap.String("to", req.To), zap.String("template", req.TemplateName), zap.String("language", req.LanguageCode)},
		func(ctx context.Context) (client.Response, error) {
			return s.client.SendTemplateMessage(ctx, req)
		})
}

// SendMedia sends an image, video, audio, document or sticker.
func (s *Service) SendMedia(ctx context.Context, req client.SendMediaMessageRequest) (client.Response, error) {
	return s.call(ctx, "send_media", []zap.Field{zap.String("to", req.To), zap.String("media_type", string(req.Type))},
		func(ctx context.Context) (client.Response, error) {
			return s.client.SendMediaMessage(ctx, req)
		})
}

// SendInteractive sends a button or list message.
func (s *Service) SendInteractive(ctx context.Context, req client.SendInteractiveMessageRequest) (client.Response, error) {
	return s.call(ctx, "send_interactive", []zap.Field{zap.String("to", req.To)},
		func(ctx context.Context) (client.Response, error) {
			return s.client.SendInteractiveMessage(ctx, req)
		})
}

// SendCustom forwards a caller-built payload.
func (s *Service) SendCustom(ctx context.Context, payload map[string]any) (client.Response, error) {
	return s.call(ctx, "send_custom", []zap.Field{zap.Any("type", payload["type"])},
		func(ctx context.Context) (client.Response, error) {
			return s.client.SendCustomMessage(ctx, payload)
		})
}

// MarkRead sends a read receipt for an inbound message.
func (s *Service) MarkRead(ctx context.Context, messageID string) error {
	_, err := s.call(ctx, "mark_read", []zap.Field{zap.String("message_id", messageID)},
		func(ctx context.Context) (client.Response, error) {
			return nil, s.client.MarkMessageAsRead(ctx, messageID)
		})
	return err
}

// BusinessProfile returns the sender number's business profile.
func (s *Service) BusinessProfile(ctx context.Context) (client.Response, error) {
	return s.call(ctx, "business_profile", nil, s.client.GetBusinessProfile)
}

// ListTemplates lists message templates of the business account.
func (s *Service) ListTemplates(ctx context.Context, params client.ListTemplatesParams) (client.Response, error) {
	return s.call(ctx, "list_templates", []zap.Field{zap.Int("limit", params.Limit), zap.String("after", params.After)},
		func(ctx context.Context) (client.Response, error) {
			return s.client.ListMessageTemplates(ctx, params)
		})
}

func (s *Service) call(ctx context.Context, operation string, fields []zap.Field, fn func(context.Context) (client.Response, error)) (client.Response, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	fields = append(fields, zap.String("operation", operation))

	start := time.Now()
	resp, err := fn(ctxWithTimeout)
	elapsed := time.Since(start)

	code := outcomeCode(err)
	metrics.WhatsAppRequestsTotal.WithLabelValues(operation, code).Inc()
	if code != "rejected" {
		metrics.WhatsAppRequestDuration.WithLabelValues(operation).Observe(float64(elapsed.Milliseconds()))
	}

	if err != nil {
		fields = append(fields, zap.String("code", code), zap.Duration("duration", elapsed), zap.Error(err))
		if apiErr, ok := client.AsAPIError(err); ok {
			fields = append(fields, zap.String("provider_message", apiErr.ProviderMessage()), zap.Any("details", apiErr.Details))
		}
		s.logger.Error("whatsapp api call failed", fields...)
		return nil, err
	}

	s.logger.Debug("whatsapp api call succeeded", append(fields, zap.Duration("duration", elapsed))...)
	return resp, nil
}

// outcomeCode labels a call by provider status, or "rejected" when it never
// left the process.
func outcomeCode(err error) string {
	switch {
	case err == nil:
		return "200"
	case errors.Is(err, client.ErrInvalidRequest), errors.Is(err, client.ErrNotConfigured):
		return "rejected"
	}
	if apiErr, ok := client.AsAPIError(err); ok {
		return strconv.Itoa(apiErr.StatusCode)
	}
	return "500"
}
