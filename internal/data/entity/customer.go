package entity

import (
	"github.com/google/uuid"
)

type Customer struct {
	BaseNoDelete
	TenantID uuid.UUID `db:"tenant_id"`
	Email    string    `db:"email"`
	Name     string    `db:"name"`
}
