package security

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// ErrNoAPIKeys is returned when the allow-list is empty.
var ErrNoAPIKeys = errors.New("at least one API key hash is required")

// APIKeyValidator accepts keys whose SHA-256 digest is on the allow-list.
// Only digests are held in memory.
type APIKeyValidator struct {
	hashes [][]byte
}

// NewAPIKeyValidator parses hex-encoded SHA-256 digests.
func NewAPIKeyValidator(hexHashes []string) (*APIKeyValidator, error) {
	if len(hexHashes) == 0 {
		return nil, ErrNoAPIKeys
	}

	hashes := make([][]byte, 0, len(hexHashes))
	for _, h := range hexHashes {
		raw, err := hex.DecodeString(strings.TrimSpace(h))
		if err != nil || len(raw) != sha256.Size {
			return nil, fmt.Errorf("invalid API key hash %q: expected a 64 character SHA-256 hex digest", h)
		}
		hashes = append(hashes, raw)
	}

	return &APIKeyValidator{hashes: hashes}, nil
}

// Validate reports whether key hashes to an allow-listed digest.
func (v *APIKeyValidator) Validate(key string) bool {
	if v == nil || key == "" {
		return false
	}

	sum := sha256.Sum256([]byte(key))
	matched := 0
	for _, h := range v.hashes {
		matched |= subtle.ConstantTimeCompare(h, sum[:])
	}
	return matched == 1
}

// HashAPIKey returns the hex digest to put in AUTH_API_KEY_HASHES for key.
func HashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
