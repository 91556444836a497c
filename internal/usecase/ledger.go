package usecase

import (
	"context"
	"fmt"
	"time"

	"wedding-booking/internal/data/entity"
	"wedding-booking/internal/data/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IdempotencyLedger records every verified delivery keyed by (tenant, provider event id).
// DefaultPendingLease applies when no positive lease is configured.
const DefaultPendingLease = 30 * time.Second

// A PENDING row whose attempt died mid-flight (crash, lost commit) is reclaimed
// by a redelivery once it has been idle for lease.
type IdempotencyLedger struct {
	events repository.WebhookEventRepository
	lease  time.Duration
	log    *zap.Logger
}

func NewIdempotencyLedger(events repository.WebhookEventRepository, lease time.Duration, log *zap.Logger) *IdempotencyLedger {
	if lease <= 0 {
		lease = DefaultPendingLease
	}
	return &IdempotencyLedger{
		events: events,
		lease:  lease,
		log:    log.With(zap.String("service", "ledger")),
	}
}

func (l *IdempotencyLedger) IsDuplicate(ctx context.Context, tenantID uuid.UUID, externalEventID string) (bool, error) {
	event, err := l.events.FindByExternalID(ctx, tenantID, externalEventID)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return event != nil, nil
}

// RecordEvent inserts the ledger row in one atomic statement. proceed is true
// for a first delivery, for a redelivery of an event whose earlier attempt
// failed with a retryable category, and for one whose PENDING lease expired.
// Every other redelivery is a duplicate.
func (l *IdempotencyLedger) RecordEvent(ctx context.Context, tenantID uuid.UUID, externalEventID, eventType, payloadSummary string) (*entity.WebhookEvent, bool, error) {
	now := time.Now()
	stored, inserted, err := l.events.Record(ctx, &entity.WebhookEvent{
		BaseNoDelete: entity.BaseNoDelete{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		TenantID:        tenantID,
		ExternalEventID: externalEventID,
		EventType:       eventType,
		PayloadSummary:  payloadSummary,
		Status:          entity.WebhookEventStatusPending,
	})
	if err != nil {
		return nil, false, fmt.Errorf("%w: record event", ErrPersistence)
	}
	if inserted {
		return stored, true, nil
	}

	claimed, err := l.events.ClaimRetry(ctx, tenantID, externalEventID, l.lease)
	if err != nil {
		return nil, false, fmt.Errorf("%w: claim retry", ErrPersistence)
	}
	if claimed {
		l.log.Info("Reclaimed webhook event for another attempt",
			zap.String("tenant_id", tenantID.String()),
			zap.String("external_event_id", externalEventID),
			zap.String("previous_status", string(stored.Status)),
			zap.Int("attempts", stored.Attempts),
		)
		stored.Status = entity.WebhookEventStatusPending
		stored.LastError = nil
		return stored, true, nil
	}
	return stored, false, nil
}

func (l *IdempotencyLedger) MarkProcessed(ctx context.Context, tenantID uuid.UUID, externalEventID string) error {
	if err := l.events.MarkProcessed(ctx, tenantID, externalEventID); err != nil {
		return fmt.Errorf("%w: mark processed", ErrPersistence)
	}
	return nil
}

// MarkFailed only ever stores an abstract category. The detailed error stays in the log.
func (l *IdempotencyLedger) MarkFailed(ctx context.Context, tenantID uuid.UUID, externalEventID string, category entity.ErrorCategory) error {
	if !category.Valid() {
		return fmt.Errorf("%w: unknown error category", ErrValidation)
	}
	if err := l.events.MarkFailed(ctx, tenantID, externalEventID, category); err != nil {
		l.log.Error("Failed to record webhook failure",
			zap.Error(err),
			zap.String("tenant_id", tenantID.String()),
			zap.String("external_event_id", externalEventID),
			zap.String("category", string(category)),
		)
		return fmt.Errorf("%w: mark failed", ErrPersistence)
	}
	return nil
}
