package entity

import (
	"github.com/google/uuid"
)

type AdminRole string

const (
	AdminRolePlatform AdminRole = "platform_admin"
	AdminRoleTenant   AdminRole = "tenant_admin"
)

type Admin struct {
	BaseNoDelete
	Email        string     `db:"email"`
	PasswordHash string     `db:"password_hash"`
	Role         AdminRole  `db:"role"`
	TenantID     *uuid.UUID `db:"tenant_id"`
	IsActive     bool       `db:"is_active"`
}
