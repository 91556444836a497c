package entity

import (
	"github.com/google/uuid"
)

// Principal is the authenticated caller of the admin API. It is a closed set:
// PlatformAdmin or TenantAdmin.
type Principal interface {
	principal()
	Subject() uuid.UUID
}

// PlatformAdmin may act on every tenant.
type PlatformAdmin struct {
	AdminID uuid.UUID
}

// TenantAdmin may only act on its own tenant.
type TenantAdmin struct {
	AdminID  uuid.UUID
	TenantID uuid.UUID
}

func (PlatformAdmin) principal() {}
func (TenantAdmin) principal()   {}

func (p PlatformAdmin) Subject() uuid.UUID { return p.AdminID }
func (p TenantAdmin) Subject() uuid.UUID   { return p.AdminID }
