package models

// SendTextRequest is the body of POST /messages/text.
type SendTextRequest struct {
	To         string `json:"to" binding:"required"`
	Body       string `json:"body" binding:"required"`
	PreviewURL *bool  `json:"previewUrl"`
}

// SendTemplateRequest is the body of POST /messages/template.
type SendTemplateRequest struct {
	To           string              `json:"to" binding:"required"`
	TemplateName string              `json:"templateName" binding:"required"`
	Language     string              `json:"language" binding:"required"`
	Components   []TemplateComponent `json:"components" binding:"omitempty,dive"`
}

// TemplateComponent fills a header, body, button or footer slot of a template.
// Field names follow the Graph API wire format because components are
// forwarded as-is.
type TemplateComponent struct {
	Type       string              `json:"type" binding:"required,oneof=header body button footer"`
	SubType    string              `json:"sub_type,omitempty"`
	Index      *int                `json:"index,omitempty"`
	Parameters []TemplateParameter `json:"parameters,omitempty" binding:"omitempty,dive"`
}

// TemplateParameter is a single substitution inside a template component.
type TemplateParameter struct {
	Type     string         `json:"type" binding:"required,oneof=text currency date_time image document video payload button"`
	SubType  string         `json:"sub_type,omitempty"`
	Text     string         `json:"text,omitempty"`
	Currency map[string]any `json:"currency,omitempty"`
	DateTime map[string]any `json:"date_time,omitempty"`
	Image    map[string]any `json:"image,omitempty"`
	Document map[string]any `json:"document,omitempty"`
	Video    map[string]any `json:"video,omitempty"`
	Payload  string         `json:"payload,omitempty"`
}

// SendMediaRequest is the body of POST /messages/media. Exactly one of Link
// and ID must be set.
type SendMediaRequest struct {
	To      string `json:"to" binding:"required"`
	Type    string `json:"type" binding:"required,oneof=image video audio document sticker"`
	Link    string `json:"link" binding:"required_without=ID,excluded_with=ID"`
	ID      string `json:"id" binding:"required_without=Link"`
	Caption string `json:"caption"`
}

// SendInteractiveRequest is the body of POST /messages/interactive.
type SendInteractiveRequest struct {
	To            string         `json:"to" binding:"required"`
	RecipientType string         `json:"recipientType" binding:"omitempty,oneof=individual group"`
	Interactive   map[string]any `json:"interactive" binding:"required"`
}

// SendCustomRequest is the body of POST /messages/custom. The payload is
// forwarded to the provider untouched apart from messaging_product.
type SendCustomRequest struct {
	Payload map[string]any `json:"payload" binding:"required"`
}

// MarkReadRequest is the body of POST /messages/mark-read.
type MarkReadRequest struct {
	MessageID string `json:"messageId" binding:"required"`
}

// ListTemplatesQuery binds the query string of GET /messages/templates.
type ListTemplatesQuery struct {
	Limit int    `form:"limit" binding:"omitempty,gt=0"`
	After string `form:"after"`
}
