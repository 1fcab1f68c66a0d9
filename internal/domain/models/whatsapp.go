package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Change fields delivered by the WhatsApp Business webhook.
const (
	FieldMessages               = "messages"
	FieldStatuses               = "statuses"
	FieldTemplateStatusUpdate   = "message_template_status_update"
	FieldTemplateCategoryUpdate = "message_template_category_update"
	FieldUnknown                = "unknown"
)

// WebhookPayload mirrors the structure sent by Meta's WhatsApp Cloud API webhook callbacks.
type WebhookPayload struct {
	Object string         `json:"object"`
	Entry  []WebhookEntry `json:"entry"`
}

// WebhookEntry represents one entry payload within the webhook body.
type WebhookEntry struct {
	ID      string          `json:"id"`
	Changes []WebhookChange `json:"changes"`
}

// WebhookChange carries one notification. The shape of Value depends on Field,
// so it is kept raw until Decode picks the matching variant.
type WebhookChange struct {
	Field string          `json:"field"`
	Value json.RawMessage `json:"value"`
}

// FieldName returns the change discriminator, FieldUnknown when absent.
func (c WebhookChange) FieldName() string {
	if c.Field == "" {
		return FieldUnknown
	}
	return c.Field
}

// Decode resolves the change value into the variant selected by its field.
// A missing or null value decodes into the empty variant.
func (c WebhookChange) Decode() (ChangeValue, error) {
	field := c.FieldName()

	var target ChangeValue
	switch field {
	case FieldMessages:
		v := &MessagesValue{}
		if err := decodeValue(c.Value, v); err != nil {
			return nil, fmt.Errorf("decode %s value: %w", field, err)
		}
		target = *v
	case FieldStatuses:
		v := &StatusesValue{}
		if err := decodeValue(c.Value, v); err != nil {
			return nil, fmt.Errorf("decode %s value: %w", field, err)
		}
		target = *v
	case FieldTemplateStatusUpdate, FieldTemplateCategoryUpdate:
		v := &TemplateUpdateValue{}
		if err := decodeValue(c.Value, v); err != nil {
			return nil, fmt.Errorf("decode %s value: %w", field, err)
		}
		target = *v
	default:
		target = UnknownValue{Field: field, Raw: c.Value}
	}

	return target, nil
}

func decodeValue(raw json.RawMessage, dst any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	return json.Unmarshal(trimmed, dst)
}

// ChangeValue is the closed set of change payloads: MessagesValue,
// StatusesValue, TemplateUpdateValue and UnknownValue.
type ChangeValue interface {
	changeValue()
}

// MessagesValue contains message metadata, contacts and messages sent by users.
// Contacts and messages stay raw so that one malformed item can be skipped
// without losing its siblings; see DecodeContact and DecodeMessage.
type MessagesValue struct {
	MessagingProduct string            `json:"messaging_product"`
	Metadata         Metadata          `json:"metadata"`
	Contacts         []json.RawMessage `json:"contacts"`
	Messages         []json.RawMessage `json:"messages"`
}

// StatusesValue contains delivery receipts for messages sent by the business.
// Statuses are decoded one at a time with DecodeStatus.
type StatusesValue struct {
	MessagingProduct string            `json:"messaging_product"`
	Metadata         Metadata          `json:"metadata"`
	Statuses         []json.RawMessage `json:"statuses"`
}

// DecodeMessage decodes one element of MessagesValue.Messages.
func DecodeMessage(raw json.RawMessage) (InboundMessage, error) {
	var msg InboundMessage
	if err := decodeValue(raw, &msg); err != nil {
		return InboundMessage{}, fmt.Errorf("decode message: %w", err)
	}
	return msg, nil
}

// DecodeContact decodes one element of MessagesValue.Contacts.
func DecodeContact(raw json.RawMessage) (Contact, error) {
	var contact Contact
	if err := decodeValue(raw, &contact); err != nil {
		return Contact{}, fmt.Errorf("decode contact: %w", err)
	}
	return contact, nil
}

// DecodeStatus decodes one element of StatusesValue.Statuses.
func DecodeStatus(raw json.RawMessage) (MessageStatus, error) {
	var status MessageStatus
	if err := decodeValue(raw, &status); err != nil {
		return MessageStatus{}, fmt.Errorf("decode status: %w", err)
	}
	return status, nil
}

// TemplateUpdateValue covers template status and category notifications.
type TemplateUpdateValue struct {
	TemplateID       FlexString     `json:"message_template_id"`
	TemplateName     string         `json:"message_template_name"`
	TemplateLanguage string         `json:"message_template_language"`
	Event            string         `json:"event"`
	Reason           string         `json:"reason"`
	PreviousCategory string         `json:"previous_category"`
	NewCategory      string         `json:"new_category"`
	Failures         []WebhookError `json:"failures"`
}

// UnknownValue holds changes whose field this service does not process.
type UnknownValue struct {
	Field string
	Raw   json.RawMessage
}

func (MessagesValue) changeValue()       {}
func (StatusesValue) changeValue()       {}
func (TemplateUpdateValue) changeValue() {}
func (UnknownValue) changeValue()        {}

// Metadata contains WhatsApp phone identifiers for the business account.
type Metadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

// Contact represents the WhatsApp user initiating the conversation.
type Contact struct {
	Profile ContactProfile `json:"profile"`
	WaID    string         `json:"wa_id"`
}

// ContactProfile contains the human-friendly contact name.
type ContactProfile struct {
	Name string `json:"name"`
}

// Inbound message types.
const (
	MessageTypeText        = "text"
	MessageTypeImage       = "image"
	MessageTypeAudio       = "audio"
	MessageTypeVideo       = "video"
	MessageTypeDocument    = "document"
	MessageTypeSticker     = "sticker"
	MessageTypeInteractive = "interactive"
	MessageTypeButton      = "button"
	MessageTypeLocation    = "location"
	MessageTypeContacts    = "contacts"
)

// InboundMessage aggregates all supported inbound WhatsApp message shapes.
type InboundMessage struct {
	From        string              `json:"from"`
	ID          string              `json:"id"`
	Timestamp   string              `json:"timestamp"`
	Type        string              `json:"type"`
	Context     *MessageContext     `json:"context,omitempty"`
	Text        *TextContent        `json:"text,omitempty"`
	Image       *MediaContent       `json:"image,omitempty"`
	Audio       *MediaContent       `json:"audio,omitempty"`
	Video       *MediaContent       `json:"video,omitempty"`
	Document    *MediaContent       `json:"document,omitempty"`
	Sticker     *MediaContent       `json:"sticker,omitempty"`
	Interactive *InteractiveContent `json:"interactive,omitempty"`
	Button      *ButtonContent      `json:"button,omitempty"`
	Location    *LocationContent    `json:"location,omitempty"`
	Contacts    json.RawMessage     `json:"contacts,omitempty"`
}

// ReplyTo returns the id of the message this one answers, if any.
func (m InboundMessage) ReplyTo() string {
	if m.Context == nil {
		return ""
	}
	return m.Context.ID
}

// MessageContext references an earlier message in the conversation.
type MessageContext struct {
	From string `json:"from"`
	ID   string `json:"id"`
}

// TextContent contains text messages body.
type TextContent struct {
	Body string `json:"body"`
}

// InteractiveContent represents button/list replies.
type InteractiveContent struct {
	Type        string       `json:"type"`
	ButtonReply *ButtonReply `json:"button_reply,omitempty"`
	ListReply   *ListReply   `json:"list_reply,omitempty"`
}

// ButtonReply models a pressed button payload.
type ButtonReply struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// ListReply models a selected list item payload.
type ListReply struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ButtonContent is sent when a customer taps a template quick-reply button.
type ButtonContent struct {
	Payload string `json:"payload"`
	Text    string `json:"text"`
}

// LocationContent is a shared pin.
type LocationContent struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name"`
	Address   string  `json:"address"`
}

// MediaContent represents media attachments minimal metadata.
type MediaContent struct {
	ID       string `json:"id"`
	MimeType string `json:"mime_type"`
	Sha256   string `json:"sha256"`
	Caption  string `json:"caption"`
	Filename string `json:"filename"`
}

// Delivery statuses reported by the Cloud API.
const (
	StatusSent      = "sent"
	StatusDelivered = "delivered"
	StatusRead      = "read"
	StatusFailed    = "failed"
	StatusDeleted   = "deleted"
	StatusUnknown   = "unknown"
)

// KnownStatus returns status when it is one of the delivery statuses above,
// StatusUnknown otherwise.
func KnownStatus(status string) string {
	switch status {
	case StatusSent, StatusDelivered, StatusRead, StatusFailed, StatusDeleted:
		return status
	}
	return StatusUnknown
}

// KnownField returns field when this service handles it, FieldUnknown otherwise.
func KnownField(field string) string {
	switch field {
	case FieldMessages, FieldStatuses, FieldTemplateStatusUpdate, FieldTemplateCategoryUpdate:
		return field
	}
	return FieldUnknown
}

// MessageStatus represents delivery/read receipts coming from WhatsApp.
type MessageStatus struct {
	ID           string              `json:"id"`
	Status       string              `json:"status"`
	Timestamp    string              `json:"timestamp"`
	RecipientID  string              `json:"recipient_id"`
	Conversation *StatusConversation `json:"conversation,omitempty"`
	Pricing      *StatusPricing      `json:"pricing,omitempty"`
	Errors       []WebhookError      `json:"errors"`
}

// StatusConversation describes the billing conversation a status belongs to.
type StatusConversation struct {
	ID                  string `json:"id"`
	ExpirationTimestamp string `json:"expiration_timestamp"`
	Origin              struct {
		Type string `json:"type"`
	} `json:"origin"`
}

// StatusPricing carries the pricing attributes of a delivered message.
type StatusPricing struct {
	Billable     bool   `json:"billable"`
	PricingModel string `json:"pricing_model"`
	Category     string `json:"category"`
}

// WebhookError exposes errors returned from Meta during webhook notifications.
type WebhookError struct {
	Code    int    `json:"code"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// FlexString accepts either a JSON string or a JSON number. Meta sends
// template ids as numbers on some API versions and strings on others.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*f = ""
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return fmt.Errorf("expected string or number: %w", err)
	}
	*f = FlexString(n.String())
	return nil
}
