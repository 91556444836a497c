package usecase

import (
	"fmt"

	"wedding-booking/internal/data/entity"

	"github.com/google/uuid"
)

// AuthorizeTenant decides whether p may act on tenantID. Unknown principal
// kinds are denied.
func AuthorizeTenant(p entity.Principal, tenantID uuid.UUID) error {
	switch p := p.(type) {
	case entity.PlatformAdmin:
		return nil
	case entity.TenantAdmin:
		if p.TenantID == tenantID {
			return nil
		}
		return fmt.Errorf("%w: tenant %s", ErrForbidden, tenantID)
	default:
		return ErrUnauthorized
	}
}

func RequirePlatformAdmin(p entity.Principal) error {
	switch p.(type) {
	case entity.PlatformAdmin:
		return nil
	case entity.TenantAdmin:
		return fmt.Errorf("%w: platform admin only", ErrForbidden)
	default:
		return ErrUnauthorized
	}
}
