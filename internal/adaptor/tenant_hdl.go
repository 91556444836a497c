package adaptor

import (
	"encoding/json"
	"net/http"

	"wedding-booking/internal/dto/request"
	"wedding-booking/internal/usecase"
	"wedding-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type TenantHandler struct {
	service usecase.TenantService
	log     *zap.Logger
}

func NewTenantHandler(service usecase.TenantService, log *zap.Logger) *TenantHandler {
	return &TenantHandler{
		service: service,
		log:     log.With(zap.String("handler", "tenant")),
	}
}

// GetTenant handles GET /api/admin/tenants/{tenantID}
func (h *TenantHandler) GetTenant(w http.ResponseWriter, r *http.Request) {
	principal, ok := utils.GetPrincipalFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}
	tenantID, ok := parseUUIDParam(w, chi.URLParam(r, "tenantID"), "tenant id")
	if !ok {
		return
	}

	tenant, err := h.service.GetTenant(r.Context(), principal, tenantID)
	if err != nil {
		handleServiceError(w, h.log, err, "get tenant")
		return
	}

	utils.ResponseSuccess(w, "success", tenant)
}

// UpdateCommission handles PUT /api/admin/tenants/{tenantID}/commission
func (h *TenantHandler) UpdateCommission(w http.ResponseWriter, r *http.Request) {
	principal, ok := utils.GetPrincipalFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}
	tenantID, ok := parseUUIDParam(w, chi.URLParam(r, "tenantID"), "tenant id")
	if !ok {
		return
	}

	var req request.UpdateCommissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}
	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	tenant, err := h.service.UpdateCommission(r.Context(), principal, tenantID, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "update commission")
		return
	}

	utils.ResponseSuccess(w, "Commission updated", tenant)
}
