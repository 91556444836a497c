package entity

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Tenant struct {
	BaseNoDelete
	Slug           string          `db:"slug"`
	Name           string          `db:"name"`
	BasePriceCents int64           `db:"base_price_cents"`
	CommissionRate decimal.Decimal `db:"commission_rate"`
	Currency       string          `db:"currency"`
	IsActive       bool            `db:"is_active"`
}

// Owns reports whether the given tenant id is this tenant.
func (t *Tenant) Owns(tenantID uuid.UUID) bool {
	return t != nil && t.ID == tenantID
}
