package webhook

import (
	"fmt"

	"github.com/mamadbah2/wagateway/internal/security"
)

const subscribeMode = "subscribe"

// ErrInvalidVerifyToken is returned when the subscription handshake fails.
var ErrInvalidVerifyToken = fmt.Errorf("%w: webhook verification failed", security.ErrUnauthorized)

// VerifySubscription answers Meta's hub.challenge handshake. The challenge is
// echoed back only for a subscribe request carrying the expected token.
func VerifySubscription(expectedToken, mode, verifyToken, challenge string) (string, error) {
	if mode != subscribeMode || expectedToken == "" || verifyToken != expectedToken {
		return "", ErrInvalidVerifyToken
	}
	return challenge, nil
}
