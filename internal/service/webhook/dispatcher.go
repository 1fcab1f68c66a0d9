package webhook

import (
	"context"

	"go.uber.org/zap"

	"github.com/mamadbah2/wagateway/internal/config"
	"github.com/mamadbah2/wagateway/internal/domain/models"
	"github.com/mamadbah2/wagateway/internal/metrics"
	"github.com/mamadbah2/wagateway/internal/security"
	client "github.com/mamadbah2/wagateway/pkg/clients/whatsapp"
)

// Outbound is the part of the outbound message service the dispatcher needs.
type Outbound interface {
	MarkRead(ctx context.Context, messageID string) error
	SendText(ctx context.Context, req client.SendTextMessageRequest) (client.Response, error)
}

// Handler describes the webhook operations the HTTP layer can perform.
type Handler interface {
	VerifySubscription(mode, verifyToken, challenge string) (string, error)
	Handle(ctx context.Context, payload models.WebhookPayload, rawBody []byte, signature string) error
}

// Dispatcher authenticates webhook deliveries and routes every change to the
// handler of its field.
type Dispatcher struct {
	cfg      config.WhatsAppConfig
	verifier *security.SignatureVerifier
	outbound Outbound
	logger   *zap.Logger
}

// NewDispatcher wires a new dispatcher instance.
func NewDispatcher(cfg config.WhatsAppConfig, verifier *security.SignatureVerifier, outbound Outbound, logger *zap.Logger) *Dispatcher {
	d := &Dispatcher{
		cfg:      cfg,
		verifier: verifier,
		outbound: outbound,
		logger:   logger,
	}
	if d.logger == nil {
		d.logger = zap.NewNop()
	}
	if d.verifier == nil {
		d.verifier = security.NewSignatureVerifier(cfg.SignatureSecret())
	}
	return d
}

// VerifySubscription validates the callback verification handshake.
func (d *Dispatcher) VerifySubscription(mode, verifyToken, challenge string) (string, error) {
	resp, err := VerifySubscription(d.cfg.VerifyToken, mode, verifyToken, challenge)
	if err != nil {
		d.logger.Warn("webhook verification rejected", zap.String("mode", mode))
		return "", err
	}
	d.logger.Info("webhook verified")
	return resp, nil
}

// Handle authenticates rawBody against signature and processes payload.
// Only an authentication failure is returned; once past that point every
// per-item failure is logged where it happens and processing continues.
func (d *Dispatcher) Handle(ctx context.Context, payload models.WebhookPayload, rawBody []byte, signature string) error {
	if err := d.verifier.Verify(rawBody, signature); err != nil {
		metrics.WebhookRequestsTotal.WithLabelValues("unauthorized").Inc()
		d.logger.Warn("webhook signature rejected", zap.Error(err))
		return err
	}

	if len(payload.Entry) == 0 {
		metrics.WebhookRequestsTotal.WithLabelValues("empty").Inc()
		d.logger.Info("webhook payload has no entries", zap.String("object", payload.Object))
		return nil
	}
	metrics.WebhookRequestsTotal.WithLabelValues("accepted").Inc()

	for _, entry := range payload.Entry {
		if len(entry.Changes) == 0 {
			d.logger.Warn("webhook entry has no changes", zap.String("entry_id", entry.ID))
			continue
		}
		for _, change := range entry.Changes {
			d.dispatchChange(ctx, entry.ID, change)
		}
	}

	return nil
}

func (d *Dispatcher) dispatchChange(ctx context.Context, entryID string, change models.WebhookChange) {
	field := change.FieldName()
	metrics.WebhookChangesTotal.WithLabelValues(models.KnownField(field)).Inc()

	logger := d.logger.With(zap.String("entry_id", entryID), zap.String("field", field))

	value, err := change.Decode()
	if err != nil {
		logger.Error("failed to decode webhook change", zap.Error(err))
		return
	}

	switch v := value.(type) {
	case models.MessagesValue:
		d.handleMessages(ctx, logger, v)
	case models.StatusesValue:
		d.handleStatuses(logger, v)
	case models.TemplateUpdateValue:
		d.handleTemplateUpdate(logger, v)
	case models.UnknownValue:
		logger.Info("ignoring unsupported webhook change")
	}
}
