package usecase

import (
	"testing"

	"wedding-booking/internal/data/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestAuthorizeTenant(t *testing.T) {
	own, other := uuid.New(), uuid.New()

	assert.NoError(t, AuthorizeTenant(entity.PlatformAdmin{AdminID: uuid.New()}, own))
	assert.NoError(t, AuthorizeTenant(entity.PlatformAdmin{AdminID: uuid.New()}, other))

	vendor := entity.TenantAdmin{AdminID: uuid.New(), TenantID: own}
	assert.NoError(t, AuthorizeTenant(vendor, own))
	assert.ErrorIs(t, AuthorizeTenant(vendor, other), ErrForbidden)

	assert.ErrorIs(t, AuthorizeTenant(nil, own), ErrUnauthorized)
}

func TestRequirePlatformAdmin(t *testing.T) {
	assert.NoError(t, RequirePlatformAdmin(entity.PlatformAdmin{AdminID: uuid.New()}))
	assert.ErrorIs(t, RequirePlatformAdmin(entity.TenantAdmin{AdminID: uuid.New(), TenantID: uuid.New()}), ErrForbidden)
	assert.ErrorIs(t, RequirePlatformAdmin(nil), ErrUnauthorized)
}
