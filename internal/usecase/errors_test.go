package usecase

import (
	"errors"
	"fmt"
	"testing"

	"wedding-booking/internal/data/entity"
	"wedding-booking/internal/data/repository"
	"wedding-booking/pkg/database"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestCategory(t *testing.T) {
	tests := []struct {
		err  error
		want entity.ErrorCategory
	}{
		{ErrSlotLockTimeout, entity.ErrorCategoryDateUnavailable},
		{ErrWriteConflict, entity.ErrorCategoryDateUnavailable},
		{fmt.Errorf("%w: addon_ids", ErrValidation), entity.ErrorCategoryValidation},
		{fmt.Errorf("%w: booking", ErrNotFound), entity.ErrorCategoryNotFound},
		{ErrCommissionPrecondition, entity.ErrorCategoryPersistence},
		{errors.New("connection reset"), entity.ErrorCategoryPersistence},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, Category(tt.err))
		})
	}
}

func TestMapSlotError(t *testing.T) {
	assert.ErrorIs(t, mapSlotError(fmt.Errorf("commit: %w", repository.ErrSlotTaken)), ErrWriteConflict)
	assert.ErrorIs(t, mapSlotError(repository.ErrSlotLocked), ErrSlotLockTimeout)
	assert.ErrorIs(t, mapSlotError(repository.ErrSlotLocked), ErrDateUnavailable)

	plain := errors.New("boom")
	assert.Same(t, plain, mapSlotError(plain))
}

func TestMapRowLockError(t *testing.T) {
	for _, cause := range []error{
		repository.ErrSlotLocked,
		fmt.Errorf("lock booking: %w", repository.ErrSlotLocked),
		&pgconn.PgError{Code: database.CodeLockNotAvailable},
	} {
		mapped := mapRowLockError(cause)
		assert.ErrorIs(t, mapped, ErrPersistence)
		assert.NotErrorIs(t, mapped, ErrDateUnavailable)
		assert.Equal(t, entity.ErrorCategoryPersistence, Category(mapped))
		assert.ErrorIs(t, mapSlotError(mapped), ErrPersistence, "classification must not turn it into a slot failure")
		assert.NotErrorIs(t, mapSlotError(mapped), ErrDateUnavailable)
	}

	plain := errors.New("boom")
	assert.Same(t, plain, mapRowLockError(plain))
}

func TestAsPersistence(t *testing.T) {
	wrapped := asPersistence(errors.New("duplicate key value violates unique constraint"), "write booking")
	assert.ErrorIs(t, wrapped, ErrPersistence)
	assert.NotContains(t, wrapped.Error(), "duplicate key")

	known := fmt.Errorf("%w: event_date", ErrValidation)
	assert.Same(t, known, asPersistence(known, "write booking"))
}
