package auth

import (
	"errors"
	"fmt"
)

// Rejection reasons returned by Authenticate. Callers match them with errors.Is.
var (
	ErrMissingField   = errors.New("missing required field")
	ErrExpired        = errors.New("request expired")
	ErrReplayDetected = errors.New("replay attack detected")
	ErrUnverified     = errors.New("cannot verify validator")

	// ErrUnknownIdentity is returned by the registry and never leaves the
	// authenticator unwrapped; callers see ErrUnverified.
	ErrUnknownIdentity = errors.New("unknown identity")
)

// MissingFieldError names the path that failed to resolve.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field '%s'", e.Field)
}

func (e *MissingFieldError) Is(target error) bool {
	return target == ErrMissingField
}

// unverified wraps the internal cause while keeping ErrUnverified as the
// only reason exposed through PublicReason.
func unverified(cause error) error {
	return fmt.Errorf("%w: %v", ErrUnverified, cause)
}

// PublicReason maps an authentication error to the message sent to the caller.
// Verification failures collapse into one message regardless of cause.
func PublicReason(err error) string {
	var mf *MissingFieldError
	switch {
	case errors.As(err, &mf):
		return fmt.Sprintf("Missing required field '%s' in request", mf.Field)
	case errors.Is(err, ErrMissingField):
		return "Missing required fields in request"
	case errors.Is(err, ErrExpired):
		return "Request expired"
	case errors.Is(err, ErrReplayDetected):
		return "Replay attack detected"
	default:
		return "Cannot verify validator"
	}
}

// resultLabel is the metrics label for an outcome.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "accepted"
	case errors.Is(err, ErrMissingField):
		return "missing_field"
	case errors.Is(err, ErrExpired):
		return "expired"
	case errors.Is(err, ErrReplayDetected):
		return "replay"
	default:
		return "unverified"
	}
}
