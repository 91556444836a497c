package response

import (
	"time"

	"wedding-booking/internal/data/entity"
)

type AuthResponse struct {
	AdminID   string           `json:"admin_id"`
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expires_at"`
	Role      entity.AdminRole `json:"role"`
	TenantID  *string          `json:"tenant_id,omitempty"`
}

func AuthToResponse(admin *entity.Admin, token string, expiresAt time.Time) AuthResponse {
	resp := AuthResponse{
		AdminID:   admin.ID.String(),
		Token:     token,
		ExpiresAt: expiresAt,
		Role:      admin.Role,
	}
	if admin.TenantID != nil {
		id := admin.TenantID.String()
		resp.TenantID = &id
	}
	return resp
}
