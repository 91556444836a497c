package usecase

import (
	"errors"
	"fmt"

	"wedding-booking/internal/data/entity"
)

var (
	// ErrDateUnavailable is what a losing booker is told, whichever way it lost.
	ErrDateUnavailable = errors.New("date no longer available")
	ErrSlotLockTimeout = fmt.Errorf("%w: slot is being booked concurrently", ErrDateUnavailable)
	ErrWriteConflict   = fmt.Errorf("%w: slot already has an active booking", ErrDateUnavailable)

	ErrValidation             = errors.New("validation failed")
	ErrSignatureInvalid       = errors.New("webhook signature invalid")
	ErrPersistence            = errors.New("persistence failure")
	ErrNotFound               = errors.New("not found")
	ErrForbidden              = errors.New("forbidden")
	ErrUnauthorized           = errors.New("unauthorized")
	ErrCommissionPrecondition = errors.New("commission precondition violated")
)

// Category maps a processing error to the abstract label stored on the ledger row.
func Category(err error) entity.ErrorCategory {
	switch {
	case errors.Is(err, ErrDateUnavailable):
		return entity.ErrorCategoryDateUnavailable
	case errors.Is(err, ErrValidation):
		return entity.ErrorCategoryValidation
	case errors.Is(err, ErrNotFound):
		return entity.ErrorCategoryNotFound
	default:
		return entity.ErrorCategoryPersistence
	}
}
