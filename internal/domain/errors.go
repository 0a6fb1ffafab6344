package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized signals a missing credential or an insufficient role.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound signals a missing index, document or user.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists signals a duplicate resource.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidFilter signals a malformed filter spec.
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrInvalidRequest signals a malformed request.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrBackendUnavailable signals a search engine or metadata store failure.
	ErrBackendUnavailable = errors.New("backend unavailable")
)

// DeniedError wraps ErrUnauthorized with a human-readable reason.
// The reason never names the missing role.
type DeniedError struct {
	Reason string
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUnauthorized.Error(), e.Reason)
}

func (e *DeniedError) Unwrap() error { return ErrUnauthorized }

// Denied creates an authorization error with the given reason.
func Denied(format string, args ...any) error {
	return &DeniedError{Reason: fmt.Sprintf(format, args...)}
}

// Invalid wraps ErrInvalidRequest with a message.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}
