package eufyclean

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAuthentication means no client-credential set produced a token.
	ErrAuthentication = errors.New("eufyclean: authentication failed")

	// ErrSession means token or session acquisition lacked required fields.
	ErrSession = errors.New("eufyclean: session acquisition failed")

	// ErrProtocol means the signed API returned a malformed or error-flagged
	// response.
	ErrProtocol = errors.New("eufyclean: protocol error")

	// ErrDeviceUnavailable is a soft outcome: the device is unreachable or
	// returned no status vector. Callers should keep the last-known status
	// and re-poll.
	ErrDeviceUnavailable = errors.New("eufyclean: device unavailable")

	// ErrCommandUnconfirmed is a soft outcome: the command send got no
	// positive transport ack. Callers should re-poll status rather than
	// treat this as a hard failure.
	ErrCommandUnconfirmed = errors.New("eufyclean: command unconfirmed")
)

// LoginAttempt records one failed client-credential attempt.
type LoginAttempt struct {
	Client string
	Reason string
}

// AuthError aggregates every failed login attempt so a vendor-side credential
// rotation is visible in a single error message.
type AuthError struct {
	Attempts []LoginAttempt
}

func (e *AuthError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %s", a.Client, a.Reason))
	}
	return fmt.Sprintf("eufyclean: all login clients rejected (%s)", strings.Join(parts, "; "))
}

func (e *AuthError) Unwrap() error {
	return ErrAuthentication
}
