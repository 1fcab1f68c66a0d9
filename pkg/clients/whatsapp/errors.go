package whatsapp

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
)

// APIError is the single shape every provider failure takes, whether the
// request never left the process, the network failed, or Meta answered with
// a 4xx/5xx.
type APIError struct {
	// StatusCode is the provider HTTP status, or 500 when none was received.
	StatusCode int
	// Details is the decoded provider error body when there was one, the raw
	// body text when it was not JSON, or the transport error message.
	Details any

	cause error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("whatsapp api error: status=%d, details=%s", e.StatusCode, e.detailsString())
}

func (e *APIError) Unwrap() error {
	return e.cause
}

// ProviderMessage returns error.message from a Graph API error body, if present.
func (e *APIError) ProviderMessage() string {
	body, ok := e.Details.(map[string]any)
	if !ok {
		return ""
	}
	inner, ok := body["error"].(map[string]any)
	if !ok {
		return ""
	}
	msg, _ := inner["message"].(string)
	return msg
}

func (e *APIError) detailsString() string {
	switch d := e.Details.(type) {
	case string:
		return d
	case nil:
		return ""
	default:
		raw, err := json.Marshal(d)
		if err != nil {
			return fmt.Sprint(d)
		}
		return string(raw)
	}
}

// AsAPIError extracts an *APIError from err.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

func newTransportError(err error) *APIError {
	return &APIError{
		StatusCode: http.StatusInternalServerError,
		Details:    err.Error(),
		cause:      err,
	}
}

func newProviderError(resp *resty.Response) *APIError {
	return &APIError{
		StatusCode: resp.StatusCode(),
		Details:    decodeDetails(resp),
	}
}

func decodeDetails(resp *resty.Response) any {
	body := resp.Body()
	if len(strings.TrimSpace(string(body))) == 0 {
		return resp.Status()
	}

	var structured any
	if err := json.Unmarshal(body, &structured); err == nil {
		return structured
	}

	return string(body)
}
