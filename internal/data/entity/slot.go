package entity

import (
	"time"

	"github.com/google/uuid"
)

const DateLayout = "2006-01-02"

// SlotLock is the handle returned once a (tenant, date) slot is held by a transaction.
// It is only meaningful until that transaction commits or rolls back.
type SlotLock struct {
	TenantID   uuid.UUID
	EventDate  time.Time
	AcquiredAt time.Time
}

// SlotDate truncates t to the calendar date used as slot identity.
func SlotDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
