package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/wagateway/internal/config"
	"github.com/mamadbah2/wagateway/internal/domain/models"
)

const (
	messagingProduct = "whatsapp"
	profileFields    = "about,address,description,email,profile_picture_url,websites,vertical"
)

var (
	// ErrInvalidRequest marks requests rejected before reaching the provider.
	ErrInvalidRequest = errors.New("whatsapp: invalid request")
	// ErrMediaSourceRequired is returned when a media message has neither link nor id.
	ErrMediaSourceRequired = fmt.Errorf("%w: media link or id is required", ErrInvalidRequest)
	// ErrUnsupportedMediaType is returned for media types the Cloud API does not accept.
	ErrUnsupportedMediaType = fmt.Errorf("%w: unsupported media type", ErrInvalidRequest)

	// ErrNotConfigured marks operations that need a server-side setting that is absent.
	ErrNotConfigured = errors.New("whatsapp: required setting not configured")
	// ErrBusinessAccountNotConfigured is returned by ListMessageTemplates without a WABA id.
	ErrBusinessAccountNotConfigured = fmt.Errorf("%w: WHATSAPP_BUSINESS_ACCOUNT_ID is required to list message templates", ErrNotConfigured)
)

// Client exposes WhatsApp Cloud API operations used by the application.
type Client interface {
	SendTextMessage(ctx context.Context, req SendTextMessageRequest) (Response, error)
	SendTemplateMessage(ctx context.Context, req SendTemplateMessageRequest) (Response, error)
	SendMediaMessage(ctx context.Context, req SendMediaMessageRequest) (Response, error)
	SendInteractiveMessage(ctx context.Context, req SendInteractiveMessageRequest) (Response, error)
	SendCustomMessage(ctx context.Context, payload map[string]any) (Response, error)
	MarkMessageAsRead(ctx context.Context, messageID string) error
	GetBusinessProfile(ctx context.Context) (Response, error)
	ListMessageTemplates(ctx context.Context, params ListTemplatesParams) (Response, error)
}

// Response is the provider's JSON answer, passed through untouched.
type Response map[string]any

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient        *resty.Client
	phoneNumberID     string
	businessAccountID string
}

// NewClient builds a WhatsApp API client using the provided configuration values.
func NewClient(cfg config.WhatsAppConfig) *APIClient {
	base := strings.TrimSuffix(cfg.BaseURL, "/")

	restyClient := resty.New()
	restyClient.
		SetBaseURL(fmt.Sprintf("%s/%s", base, cfg.APIVersion)).
		SetAuthToken(cfg.AccessToken).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetTimeout(cfg.RequestTimeout)

	return &APIClient{
		httpClient:        restyClient,
		phoneNumberID:     cfg.PhoneNumberID,
		businessAccountID: cfg.BusinessAccountID,
	}
}

// SendTextMessageRequest represents a text message payload.
type SendTextMessageRequest struct {
	To         string
	Body       string
	PreviewURL bool
}

// SendTemplateMessageRequest sends a pre-approved message template.
type SendTemplateMessageRequest struct {
	To           string
	TemplateName string
	LanguageCode string
	Components   []models.TemplateComponent
}

// SendMediaMessageRequest sends an image, video, audio, document or sticker.
type SendMediaMessageRequest struct {
	To      string
	Type    MediaType
	Source  MediaSource
	Caption string
}

// SendInteractiveMessageRequest sends a button or list message. An empty
// RecipientType defaults to "individual".
type SendInteractiveMessageRequest struct {
	To            string
	RecipientType string
	Interactive   map[string]any
}

// ListTemplatesParams paginates the template listing. Zero values are omitted.
type ListTemplatesParams struct {
	Limit int
	After string
}

// SendTextMessage posts a text message.
func (c *APIClient) SendTextMessage(ctx context.Context, req SendTextMessageRequest) (Response, error) {
	payload := map[string]any{
		"messaging_product": messagingProduct,
		"to":                req.To,
		"type":              "text",
		"text": map[string]any{
			"body":        req.Body,
			"preview_url": req.PreviewURL,
		},
	}

	return c.sendMessage(ctx, payload)
}

// SendTemplateMessage posts a template message.
func (c *APIClient) SendTemplateMessage(ctx context.Context, req SendTemplateMessageRequest) (Response, error) {
	template := map[string]any{
		"name": req.TemplateName,
		"language": map[string]any{
			"code": req.LanguageCode,
		},
	}
	if len(req.Components) > 0 {
		template["components"] = req.Components
	}

	payload := map[string]any{
		"messaging_product": messagingProduct,
		"to":                req.To,
		"type":              "template",
		"template":          template,
	}

	return c.sendMessage(ctx, payload)
}

// SendMediaMessage posts a media message. The request is rejected without a
// network call when the source is missing or the type is unsupported.
func (c *APIClient) SendMediaMessage(ctx context.Context, req SendMediaMessageRequest) (Response, error) {
	if !req.Type.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMediaType, req.Type)
	}
	if req.Source == nil {
		return nil, ErrMediaSourceRequired
	}

	media := map[string]any{}
	req.Source.apply(media)
	if req.Caption != "" {
		media["caption"] = req.Caption
	}

	payload := map[string]any{
		"messaging_product": messagingProduct,
		"to":                req.To,
		"type":              string(req.Type),
		string(req.Type):    media,
	}

	return c.sendMessage(ctx, payload)
}

// SendInteractiveMessage posts an interactive message.
func (c *APIClient) SendInteractiveMessage(ctx context.Context, req SendInteractiveMessageRequest) (Response, error) {
	recipientType := req.RecipientType
	if recipientType == "" {
		recipientType = "individual"
	}

	payload := map[string]any{
		"messaging_product": messagingProduct,
		"recipient_type":    recipientType,
		"to":                req.To,
		"type":              "interactive",
		"interactive":       req.Interactive,
	}

	return c.sendMessage(ctx, payload)
}

// SendCustomMessage posts a caller-built payload. Keys in payload win over
// the messaging_product default.
func (c *APIClient) SendCustomMessage(ctx context.Context, payload map[string]any) (Response, error) {
	body := make(map[string]any, len(payload)+1)
	body["messaging_product"] = messagingProduct
	for k, v := range payload {
		body[k] = v
	}

	return c.sendMessage(ctx, body)
}

// MarkMessageAsRead flags an inbound message as read. An empty id is a no-op.
func (c *APIClient) MarkMessageAsRead(ctx context.Context, messageID string) error {
	if messageID == "" {
		return nil
	}

	payload := map[string]any{
		"messaging_product": messagingProduct,
		"status":            "read",
		"message_id":        messageID,
	}

	_, err := c.sendMessage(ctx, payload)
	return err
}

// GetBusinessProfile fetches the business profile attached to the sender number.
func (c *APIClient) GetBusinessProfile(ctx context.Context) (Response, error) {
	req := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("fields", profileFields)

	return c.execute(req, http.MethodGet, fmt.Sprintf("%s/whatsapp_business_profile", c.phoneNumberID))
}

// ListMessageTemplates lists templates of the configured business account.
func (c *APIClient) ListMessageTemplates(ctx context.Context, params ListTemplatesParams) (Response, error) {
	if c.businessAccountID == "" {
		return nil, ErrBusinessAccountNotConfigured
	}

	req := c.httpClient.R().SetContext(ctx)
	if params.Limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(params.Limit))
	}
	if params.After != "" {
		req.SetQueryParam("after", params.After)
	}

	return c.execute(req, http.MethodGet, fmt.Sprintf("%s/message_templates", c.businessAccountID))
}

func (c *APIClient) sendMessage(ctx context.Context, payload map[string]any) (Response, error) {
	req := c.httpClient.R().
		SetContext(ctx).
		SetBody(payload)

	return c.execute(req, http.MethodPost, fmt.Sprintf("%s/messages", c.phoneNumberID))
}

// execute runs the request and funnels every failure into *APIError.
func (c *APIClient) execute(req *resty.Request, method, url string) (Response, error) {
	result := Response{}

	resp, err := req.SetResult(&result).Execute(method, url)
	if err != nil {
		return nil, newTransportError(err)
	}

	if resp.IsError() {
		return nil, newProviderError(resp)
	}

	return result, nil
}
