package memstore

import (
	"time"

	"wedding-booking/internal/data/entity"
	"wedding-booking/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DemoTenantID is stable so admin tokens survive a restart in memory mode.
var DemoTenantID = uuid.MustParse("5b1d3f0e-8f4a-4c1e-9a57-0c2f6e7d1a01")

// SeedDemo loads one tenant with a small add-on catalog, plus a platform
// admin when credentials are given.
func SeedDemo(s *Store, adminEmail, adminPassword string) error {
	now := time.Now()
	s.AddTenant(&entity.Tenant{
		BaseNoDelete:   entity.BaseNoDelete{ID: DemoTenantID, CreatedAt: now, UpdatedAt: now},
		Slug:           "bella-weddings",
		Name:           "Bella Weddings",
		BasePriceCents: 250000,
		CommissionRate: decimal.RequireFromString("12.5"),
		Currency:       "usd",
		IsActive:       true,
	})

	for _, a := range []struct {
		id    string
		name  string
		price int64
	}{
		{"9c0e4b52-3a1d-4f6e-8b2a-7d5c1e0f9a11", "Floral arch", 45000},
		{"9c0e4b52-3a1d-4f6e-8b2a-7d5c1e0f9a12", "String quartet", 120000},
		{"9c0e4b52-3a1d-4f6e-8b2a-7d5c1e0f9a13", "Champagne toast (per table)", 8000},
	} {
		s.AddAddon(&entity.Addon{
			BaseNoDelete:   entity.BaseNoDelete{ID: uuid.MustParse(a.id), CreatedAt: now, UpdatedAt: now},
			TenantID:       DemoTenantID,
			Name:           a.name,
			UnitPriceCents: a.price,
			IsActive:       true,
		})
	}

	if adminEmail == "" || adminPassword == "" {
		return nil
	}
	hash, err := utils.HashPassword(adminPassword)
	if err != nil {
		return err
	}
	s.AddAdmin(&entity.Admin{
		BaseNoDelete: entity.NewBase(now),
		Email:        adminEmail,
		PasswordHash: hash,
		Role:         entity.AdminRolePlatform,
		IsActive:     true,
	})
	return nil
}
