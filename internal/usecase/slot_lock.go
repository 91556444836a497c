package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wedding-booking/internal/data/entity"
	"wedding-booking/internal/data/repository"
	"wedding-booking/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SlotLockGuard takes the exclusive (tenant, date) lock inside an open
// transaction. It never waits for another holder and never retries.
type SlotLockGuard struct {
	log *zap.Logger
}

func NewSlotLockGuard(log *zap.Logger) *SlotLockGuard {
	return &SlotLockGuard{log: log.With(zap.String("service", "slot_lock"))}
}

func (g *SlotLockGuard) Acquire(ctx context.Context, tx repository.TxRepository, tenantID uuid.UUID, eventDate time.Time) (*entity.SlotLock, error) {
	lock, err := tx.AcquireSlotLock(ctx, tenantID, eventDate)
	if err == nil {
		return lock, nil
	}

	mapped := mapSlotError(err)
	if errors.Is(mapped, ErrDateUnavailable) {
		g.log.Info("Slot unavailable",
			zap.String("tenant_id", tenantID.String()),
			zap.String("event_date", entity.SlotDate(eventDate).Format(entity.DateLayout)),
			zap.String("reason", mapped.Error()),
		)
	}
	return nil, mapped
}

// mapSlotError translates storage-level slot failures into the booking taxonomy.
// Errors it does not recognise are returned unchanged.
func mapSlotError(err error) error {
	switch {
	case errors.Is(err, repository.ErrSlotTaken):
		return ErrWriteConflict
	case errors.Is(err, repository.ErrSlotLocked), database.IsLockNotAvailable(err):
		return ErrSlotLockTimeout
	default:
		return err
	}
}

// mapRowLockError keeps lock contention on an existing booking retryable. The
// date is already owned by that booking, so a busy row is never date_unavailable.
func mapRowLockError(err error) error {
	if errors.Is(err, repository.ErrSlotLocked) || errors.Is(err, repository.ErrSlotTaken) || database.IsLockNotAvailable(err) {
		return fmt.Errorf("%w: booking row busy: %v", ErrPersistence, err)
	}
	return err
}

// asPersistence wraps anything that is not already part of the taxonomy.
func asPersistence(err error, op string) error {
	for _, known := range []error{ErrDateUnavailable, ErrValidation, ErrNotFound, ErrPersistence, ErrCommissionPrecondition} {
		if errors.Is(err, known) {
			return err
		}
	}
	return fmt.Errorf("%w: %s", ErrPersistence, op)
}
