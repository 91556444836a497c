package response

import (
	"wedding-booking/internal/data/entity"
)

type TenantResponse struct {
	ID             string `json:"id"`
	Slug           string `json:"slug"`
	Name           string `json:"name"`
	BasePriceCents int64  `json:"base_price_cents"`
	CommissionRate string `json:"commission_rate"`
	Currency       string `json:"currency"`
	IsActive       bool   `json:"is_active"`
}

func TenantToResponse(t *entity.Tenant) TenantResponse {
	return TenantResponse{
		ID:             t.ID.String(),
		Slug:           t.Slug,
		Name:           t.Name,
		BasePriceCents: t.BasePriceCents,
		CommissionRate: t.CommissionRate.String(),
		Currency:       t.Currency,
		IsActive:       t.IsActive,
	}
}
