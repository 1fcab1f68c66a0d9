package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// SignatureHeader carries the HMAC of the webhook body computed by Meta.
const SignatureHeader = "X-Hub-Signature-256"

const signaturePrefix = "sha256="

var (
	// ErrUnauthorized is the root of every authentication failure.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrMissingSignature is returned when a secret is configured but the header is absent.
	ErrMissingSignature = fmt.Errorf("%w: missing %s header", ErrUnauthorized, SignatureHeader)
	// ErrInvalidSignature is returned when the header does not match the body.
	ErrInvalidSignature = fmt.Errorf("%w: invalid webhook signature", ErrUnauthorized)
)

// SignatureVerifier checks X-Hub-Signature-256 headers against the raw
// request body. A verifier built with an empty secret accepts everything.
type SignatureVerifier struct {
	secret []byte
}

// NewSignatureVerifier builds a verifier keyed with the app secret.
func NewSignatureVerifier(secret string) *SignatureVerifier {
	return &SignatureVerifier{secret: []byte(secret)}
}

// Enabled reports whether signatures are enforced.
func (v *SignatureVerifier) Enabled() bool {
	return v != nil && len(v.secret) > 0
}

// Verify checks header against the HMAC-SHA256 of rawBody. rawBody must be
// the bytes exactly as received; a re-encoded body will not match.
func (v *SignatureVerifier) Verify(rawBody []byte, header string) error {
	if !v.Enabled() {
		return nil
	}

	if header == "" {
		return ErrMissingSignature
	}

	expected := v.Sign(rawBody)
	provided := strings.TrimPrefix(strings.TrimSpace(header), signaturePrefix)

	if len(provided) != len(expected) {
		return ErrInvalidSignature
	}
	if subtle.ConstantTimeCompare([]byte(expected), []byte(provided)) != 1 {
		return ErrInvalidSignature
	}

	return nil
}

// Sign returns the lowercase hex HMAC-SHA256 of body.
func (v *SignatureVerifier) Sign(body []byte) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
