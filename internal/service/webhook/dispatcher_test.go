package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mamadbah2/wagateway/internal/config"
	"github.com/mamadbah2/wagateway/internal/domain/models"
	"github.com/mamadbah2/wagateway/internal/metrics"
	"github.com/mamadbah2/wagateway/internal/security"
	client "github.com/mamadbah2/wagateway/pkg/clients/whatsapp"
)

type outboundCall struct {
	op  string
	arg any
}

type recordingOutbound struct {
	mu          sync.Mutex
	calls       []outboundCall
	markReadErr error
	sendTextErr error
}

func (r *recordingOutbound) MarkRead(_ context.Context, messageID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, outboundCall{op: "markRead", arg: messageID})
	return r.markReadErr
}

func (r *recordingOutbound) SendText(_ context.Context, req client.SendTextMessageRequest) (client.Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, outboundCall{op: "sendText", arg: req})
	if r.sendTextErr != nil {
		return nil, r.sendTextErr
	}
	return client.Response{"messages": []any{map[string]any{"id": "wamid.OUT"}}}, nil
}

func (r *recordingOutbound) recorded() []outboundCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]outboundCall(nil), r.calls...)
}

func testConfig() config.WhatsAppConfig {
	return config.WhatsAppConfig{
		PhoneNumberID: "109",
		VerifyToken:   "verify-me",
		AutoReplyText: "thanks, we will get back to you",
	}
}

func newTestDispatcher(t *testing.T, secret string) (*Dispatcher, *recordingOutbound, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	out := &recordingOutbound{}
	d := NewDispatcher(testConfig(), security.NewSignatureVerifier(secret), out, zap.New(core))
	return d, out, logs
}

func decodePayload(t *testing.T, body string) models.WebhookPayload {
	t.Helper()
	var payload models.WebhookPayload
	require.NoError(t, json.Unmarshal([]byte(body), &payload))
	return payload
}

const inboundTextBody = `{"object":"whatsapp_business_account","entry":[{"id":"WABA","changes":[{"field":"messages","value":{
	"messaging_product":"whatsapp","metadata":{"display_phone_number":"62800","phone_number_id":"109"},
	"messages":[{"from":"6281234","id":"wamid.IN1","timestamp":"1700000000","type":"text","text":{"body":"hi"}}]}}]}]}`

func TestHandleInboundTextMarksReadThenReplies(t *testing.T) {
	d, out, _ := newTestDispatcher(t, "")

	err := d.Handle(context.Background(), decodePayload(t, inboundTextBody), []byte(inboundTextBody), "")
	require.NoError(t, err)

	calls := out.recorded()
	require.Len(t, calls, 2)
	assert.Equal(t, outboundCall{op: "markRead", arg: "wamid.IN1"}, calls[0])
	assert.Equal(t, "sendText", calls[1].op)
	assert.Equal(t, client.SendTextMessageRequest{
		To:         "6281234",
		Body:       "thanks, we will get back to you",
		PreviewURL: true,
	}, calls[1].arg)
}

func TestHandleSkipsBusinessOriginatedMessages(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "metadata phone number id",
			body: `{"entry":[{"changes":[{"field":"messages","value":{"metadata":{"phone_number_id":"555"},
				"messages":[{"from":"555","id":"wamid.B","type":"text","text":{"body":"echo"}}]}}]}]}`,
		},
		{
			name: "configured phone number id",
			body: `{"entry":[{"changes":[{"field":"messages","value":{
				"messages":[{"from":"109","id":"wamid.B","type":"text","text":{"body":"echo"}}]}}]}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, out, _ := newTestDispatcher(t, "")
			require.NoError(t, d.Handle(context.Background(), decodePayload(t, tt.body), []byte(tt.body), ""))
			assert.Empty(t, out.recorded())
		})
	}
}

func TestHandleSkipsMessagesWithoutSender(t *testing.T) {
	d, out, logs := newTestDispatcher(t, "")
	body := `{"entry":[{"changes":[{"field":"messages","value":{"metadata":{"phone_number_id":"109"},
		"messages":[{"id":"wamid.X","type":"text","text":{"body":"who am i"}}]}}]}]}`

	require.NoError(t, d.Handle(context.Background(), decodePayload(t, body), []byte(body), ""))

	assert.Empty(t, out.recorded())
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.WarnLevel).FilterMessageSnippet("without sender").Len())
}

func TestHandleStatusesAndTemplatesAreObservational(t *testing.T) {
	body := `{"entry":[{"id":"WABA","changes":[
		{"field":"statuses","value":{"statuses":[{"id":"wamid.S","status":"failed","recipient_id":"62",
			"errors":[{"code":131047,"title":"Re-engagement message"},{"code":131026,"title":"Undeliverable"}]}]}},
		{"field":"message_template_status_update","value":{"message_template_id":42,"event":"REJECTED","reason":"INVALID_FORMAT"}},
		{"field":"message_template_category_update","value":{"message_template_id":"43","new_category":"MARKETING"}},
		{"field":"account_update","value":{"event":"VERIFIED_ACCOUNT"}}
	]}]}`
	d, out, logs := newTestDispatcher(t, "")

	require.NoError(t, d.Handle(context.Background(), decodePayload(t, body), []byte(body), ""))

	assert.Empty(t, out.recorded())
	assert.Equal(t, 2, logs.FilterMessage("message delivery error").Len())
	assert.Equal(t, 2, logs.FilterMessage("template update").Len())
	assert.Equal(t, 1, logs.FilterMessage("template update reason").Len())
	assert.Equal(t, 1, logs.FilterMessage("ignoring unsupported webhook change").Len())
}

func TestHandleTemplateUpdateWithoutIdentifiers(t *testing.T) {
	body := `{"entry":[{"changes":[{"field":"message_template_status_update","value":{"reason":"NONE"}}]}]}`
	d, _, logs := newTestDispatcher(t, "")

	require.NoError(t, d.Handle(context.Background(), decodePayload(t, body), []byte(body), ""))

	assert.Equal(t, 1, logs.FilterMessage("template update without template id or event").Len())
	assert.Zero(t, logs.FilterMessage("template update").Len())
}

func TestHandleContinuesAfterOutboundFailures(t *testing.T) {
	body := `{"entry":[{"changes":[
		{"field":"messages","value":{"messages":"not-a-list"}},
		{"field":"messages","value":{"metadata":{"phone_number_id":"109"},"messages":[
			{"from":"62811","id":"wamid.1","type":"text","text":{"body":"a"}},
			{"from":"62822","id":"wamid.2","type":"text","text":{"body":"b"}}]}}]}]}`
	d, out, logs := newTestDispatcher(t, "")
	out.markReadErr = errors.New("read receipt failed")
	out.sendTextErr = &client.APIError{StatusCode: 400, Details: map[string]any{"error": "bad"}}

	require.NoError(t, d.Handle(context.Background(), decodePayload(t, body), []byte(body), ""))

	calls := out.recorded()
	require.Len(t, calls, 4)
	assert.Equal(t, "wamid.1", calls[0].arg)
	assert.Equal(t, "wamid.2", calls[2].arg)
	assert.Equal(t, 1, logs.FilterMessage("failed to decode webhook change").Len())
	assert.Equal(t, 2, logs.FilterMessage("failed to send auto-reply").Len())
}

func TestHandleRejectsBadSignatureBeforeProcessing(t *testing.T) {
	d, out, _ := newTestDispatcher(t, "app-secret")
	payload := decodePayload(t, inboundTextBody)

	err := d.Handle(context.Background(), payload, []byte(inboundTextBody), "sha256=deadbeef")
	assert.ErrorIs(t, err, security.ErrInvalidSignature)

	err = d.Handle(context.Background(), payload, []byte(inboundTextBody), "")
	assert.ErrorIs(t, err, security.ErrMissingSignature)

	assert.Empty(t, out.recorded())

	signature := security.NewSignatureVerifier("app-secret").Sign([]byte(inboundTextBody))
	require.NoError(t, d.Handle(context.Background(), payload, []byte(inboundTextBody), "sha256="+signature))
	assert.Len(t, out.recorded(), 2)
}

func TestHandleEmptyEntries(t *testing.T) {
	d, out, logs := newTestDispatcher(t, "")

	require.NoError(t, d.Handle(context.Background(), models.WebhookPayload{Object: "whatsapp_business_account"}, []byte(`{}`), ""))

	assert.Empty(t, out.recorded())
	assert.Equal(t, 1, logs.FilterMessage("webhook payload has no entries").Len())
}

func TestExtractMessageText(t *testing.T) {
	assert.Equal(t, "hi", extractMessageText(models.InboundMessage{Text: &models.TextContent{Body: "hi"}}))
	assert.Equal(t, "Yes", extractMessageText(models.InboundMessage{
		Interactive: &models.InteractiveContent{ButtonReply: &models.ButtonReply{ID: "yes", Title: "Yes"}},
	}))
	assert.Equal(t, "receipt", extractMessageText(models.InboundMessage{Document: &models.MediaContent{Caption: "receipt"}}))
	assert.Empty(t, extractMessageText(models.InboundMessage{}))
}

func TestHandleMalformedMessageDoesNotDropSiblings(t *testing.T) {
	body := `{"entry":[{"id":"WABA","changes":[{"field":"messages","value":{"metadata":{"phone_number_id":"109"},"messages":[
		{"from":"62811","id":"wamid.1","type":"text","text":{"body":"hello"}},
		{"from":"62822","id":"wamid.2","type":"location","location":{"latitude":"-8.6","longitude":115.2}}]}}]}]}`
	d, out, logs := newTestDispatcher(t, "")

	require.NoError(t, d.Handle(context.Background(), decodePayload(t, body), []byte(body), ""))

	calls := out.recorded()
	require.Len(t, calls, 2)
	assert.Equal(t, outboundCall{op: "markRead", arg: "wamid.1"}, calls[0])
	assert.Equal(t, "62811", calls[1].arg.(client.SendTextMessageRequest).To)

	assert.Zero(t, logs.FilterMessage("failed to decode webhook change").Len())
	malformed := logs.FilterMessage("skipping malformed message").All()
	require.Len(t, malformed, 1)
	assert.Equal(t, int64(1), malformed[0].ContextMap()["index"])
	assert.Equal(t, models.FieldMessages, malformed[0].ContextMap()["field"])
}

func TestHandleMalformedStatusDoesNotDropSiblings(t *testing.T) {
	body := `{"entry":[{"changes":[{"field":"statuses","value":{"statuses":[
		{"id":"wamid.A","status":"sent","pricing":{"billable":"yes"}},
		{"id":"wamid.B","status":"delivered","recipient_id":"62"}]}}]}]}`
	d, out, logs := newTestDispatcher(t, "")

	require.NoError(t, d.Handle(context.Background(), decodePayload(t, body), []byte(body), ""))

	assert.Empty(t, out.recorded())
	assert.Equal(t, 1, logs.FilterMessage("skipping malformed status").Len())
	updates := logs.FilterMessage("message status update").All()
	require.Len(t, updates, 1)
	assert.Equal(t, "wamid.B", updates[0].ContextMap()["message_id"])
}

func TestHandleWarnsOnEmptyBatches(t *testing.T) {
	body := `{"entry":[
		{"id":"WABA1"},
		{"id":"WABA2","changes":[
			{"field":"messages","value":{"metadata":{"phone_number_id":"109"},"messages":[]}},
			{"field":"statuses","value":{}}]}]}`
	d, out, logs := newTestDispatcher(t, "")

	require.NoError(t, d.Handle(context.Background(), decodePayload(t, body), []byte(body), ""))

	assert.Empty(t, out.recorded())
	warns := logs.FilterLevelExact(zapcore.WarnLevel)
	assert.Equal(t, 1, warns.FilterMessage("webhook entry has no changes").Len())
	assert.Equal(t, 1, warns.FilterMessage("messages change has no messages").Len())
	assert.Equal(t, 1, warns.FilterMessage("statuses change has no statuses").Len())
}

func TestHandleBoundsMetricLabels(t *testing.T) {
	body := `{"entry":[{"changes":[
		{"field":"made_up_field_1234","value":{}},
		{"field":"statuses","value":{"statuses":[{"id":"wamid.S","status":"made_up_status_1234"}]}}]}]}`
	d, _, _ := newTestDispatcher(t, "")

	unknownField := testutil.ToFloat64(metrics.WebhookChangesTotal.WithLabelValues(models.FieldUnknown))
	unknownStatus := testutil.ToFloat64(metrics.WebhookStatusesTotal.WithLabelValues(models.StatusUnknown))

	require.NoError(t, d.Handle(context.Background(), decodePayload(t, body), []byte(body), ""))

	assert.Equal(t, unknownField+1, testutil.ToFloat64(metrics.WebhookChangesTotal.WithLabelValues(models.FieldUnknown)))
	assert.Equal(t, unknownStatus+1, testutil.ToFloat64(metrics.WebhookStatusesTotal.WithLabelValues(models.StatusUnknown)))
	assert.False(t, metrics.WebhookChangesTotal.DeleteLabelValues("made_up_field_1234"))
	assert.False(t, metrics.WebhookStatusesTotal.DeleteLabelValues("made_up_status_1234"))
}
