package entity

import (
	"time"

	"github.com/google/uuid"
)

type WebhookEventStatus string

const (
	WebhookEventStatusPending   WebhookEventStatus = "PENDING"
	WebhookEventStatusProcessed WebhookEventStatus = "PROCESSED"
	WebhookEventStatusFailed    WebhookEventStatus = "FAILED"
	// Reserved. A redelivery is reported as OutcomeDuplicate and the stored
	// row keeps the status of its first attempt; nothing writes this value.
	WebhookEventStatusDuplicate WebhookEventStatus = "DUPLICATE"
)

// ErrorCategory is the only kind of error text allowed in durable storage.
// Raw error detail can carry customer data and belongs in the operational log.
type ErrorCategory string

const (
	ErrorCategoryValidation      ErrorCategory = "validation_failed"
	ErrorCategoryDateUnavailable ErrorCategory = "date_unavailable"
	ErrorCategoryNotFound        ErrorCategory = "booking_not_found"
	ErrorCategoryPersistence     ErrorCategory = "persistence_error"
)

func (c ErrorCategory) Valid() bool {
	switch c {
	case ErrorCategoryValidation, ErrorCategoryDateUnavailable, ErrorCategoryNotFound, ErrorCategoryPersistence:
		return true
	}
	return false
}

// Retryable reports whether a redelivery of a FAILED event may be processed again.
// A missing booking is retryable because providers do not guarantee delivery order.
func (c ErrorCategory) Retryable() bool {
	return c == ErrorCategoryPersistence || c == ErrorCategoryNotFound
}

// RetryableCategories lists every category for which Retryable is true.
func RetryableCategories() []ErrorCategory {
	return []ErrorCategory{ErrorCategoryPersistence, ErrorCategoryNotFound}
}

type WebhookEvent struct {
	BaseNoDelete
	TenantID        uuid.UUID          `db:"tenant_id"`
	ExternalEventID string             `db:"external_event_id"`
	EventType       string             `db:"event_type"`
	PayloadSummary  string             `db:"payload_summary"`
	Status          WebhookEventStatus `db:"status"`
	LastError       *ErrorCategory     `db:"last_error"`
	Attempts        int                `db:"attempts"`
	ProcessedAt     *time.Time         `db:"processed_at"`
}
