package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/docsearch/internal/db"
	"github.com/kailas-cloud/docsearch/internal/domain"
)

// MapError translates backend failures into domain sentinels. Context
// cancellation passes through untouched.
func MapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, db.ErrIndexNotFound), errors.Is(err, db.ErrKeyNotFound):
		return fmt.Errorf("%w: %w", domain.ErrNotFound, err)
	case errors.Is(err, db.ErrCursorNotFound):
		return fmt.Errorf("%w: scroll expired", domain.ErrNotFound)
	case errors.Is(err, db.ErrUnknownField):
		return fmt.Errorf("%w: %w", domain.ErrInvalidFilter, err)
	case errors.Is(err, db.ErrInvalidQuery):
		return fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	case errors.Is(err, db.ErrIndexExists):
		return fmt.Errorf("%w: %w", domain.ErrAlreadyExists, err)
	case isDomain(err):
		return err
	default:
		return fmt.Errorf("%w: %w", domain.ErrBackendUnavailable, err)
	}
}

func isDomain(err error) bool {
	for _, s := range []error{
		domain.ErrUnauthorized, domain.ErrNotFound, domain.ErrAlreadyExists,
		domain.ErrInvalidFilter, domain.ErrInvalidRequest, domain.ErrBackendUnavailable,
	} {
		if errors.Is(err, s) {
			return true
		}
	}
	return false
}
