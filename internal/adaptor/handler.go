package adaptor

import (
	"errors"
	"net/http"

	"wedding-booking/internal/usecase"
	"wedding-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Handler struct {
	Auth    *AuthHandler
	Booking *BookingHandler
	Tenant  *TenantHandler
	Webhook *WebhookHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Auth:    NewAuthHandler(service.Auth, log),
		Booking: NewBookingHandler(service.Booking, log),
		Tenant:  NewTenantHandler(service.Tenant, log),
		Webhook: NewWebhookHandler(service.Webhook, log),
	}
}

// handleServiceError maps the use case error taxonomy onto HTTP. Internal
// detail never reaches the client for persistence failures.
func handleServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	switch {
	case errors.Is(err, usecase.ErrValidation):
		log.Warn(operation+" validation failed", zap.Error(err))
		utils.ResponseBadRequest(w, err.Error(), nil)

	case errors.Is(err, usecase.ErrSignatureInvalid):
		utils.ResponseBadRequest(w, "Invalid signature", nil)

	case errors.Is(err, usecase.ErrUnauthorized):
		log.Warn(operation+" failed - unauthorized", zap.Error(err))
		utils.ResponseUnauthorized(w, "Unauthorized")

	case errors.Is(err, usecase.ErrForbidden):
		log.Warn(operation+" failed - forbidden", zap.Error(err))
		utils.ResponseForbidden(w, "Forbidden")

	case errors.Is(err, usecase.ErrNotFound):
		log.Warn(operation+" failed - not found", zap.Error(err))
		utils.ResponseNotFound(w, err.Error())

	case errors.Is(err, usecase.ErrDateUnavailable):
		log.Info(operation+" failed - date unavailable", zap.Error(err))
		utils.ResponseConflict(w, "Date no longer available")

	default:
		log.Error(operation+" failed", zap.Error(err))
		utils.ResponseInternalError(w, "Internal server error")
	}
}

// parseUUIDParam reports a 400 itself and returns false when raw is not a uuid.
func parseUUIDParam(w http.ResponseWriter, raw, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid "+name, nil)
		return uuid.Nil, false
	}
	return id, true
}
