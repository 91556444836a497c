package entity

import (
	"github.com/google/uuid"
)

// Addon is a catalog item a tenant sells on top of the date itself.
type Addon struct {
	BaseNoDelete
	TenantID       uuid.UUID `db:"tenant_id"`
	Name           string    `db:"name"`
	UnitPriceCents int64     `db:"unit_price_cents"`
	IsActive       bool      `db:"is_active"`
}

// BookingAddon is a line item with the unit price captured when the booking was written.
type BookingAddon struct {
	BaseSimple
	TenantID       uuid.UUID `db:"tenant_id"`
	BookingID      uuid.UUID `db:"booking_id"`
	AddonID        uuid.UUID `db:"addon_id"`
	Name           string    `db:"name"`
	Quantity       int       `db:"quantity"`
	UnitPriceCents int64     `db:"unit_price_cents"`
}

func (a *BookingAddon) LineTotalCents() int64 {
	return a.UnitPriceCents * int64(a.Quantity)
}
