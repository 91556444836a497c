package adaptor

import (
	"net/http"

	"wedding-booking/internal/dto/request"
	"wedding-booking/internal/usecase"
	"wedding-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type BookingHandler struct {
	service usecase.BookingService
	log     *zap.Logger
}

func NewBookingHandler(service usecase.BookingService, log *zap.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log.With(zap.String("handler", "booking")),
	}
}

// ListBookings handles GET /api/admin/tenants/{tenantID}/bookings
func (h *BookingHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	principal, ok := utils.GetPrincipalFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}
	tenantID, ok := parseUUIDParam(w, chi.URLParam(r, "tenantID"), "tenant id")
	if !ok {
		return
	}

	query := r.URL.Query()
	req := &request.BookingListRequest{
		PaginatedRequest: paginationFromQuery(r),
		Status:           query.Get("status"),
		EventDate:        query.Get("event_date"),
	}

	bookings, err := h.service.ListBookings(r.Context(), principal, tenantID, req)
	if err != nil {
		handleServiceError(w, h.log, err, "list bookings")
		return
	}

	utils.ResponseSuccess(w, "success", bookings)
}

// GetBooking handles GET /api/admin/tenants/{tenantID}/bookings/{id}
func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	principal, ok := utils.GetPrincipalFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}
	tenantID, ok := parseUUIDParam(w, chi.URLParam(r, "tenantID"), "tenant id")
	if !ok {
		return
	}
	bookingID, ok := parseUUIDParam(w, chi.URLParam(r, "id"), "booking id")
	if !ok {
		return
	}

	booking, err := h.service.GetBooking(r.Context(), principal, tenantID, bookingID)
	if err != nil {
		handleServiceError(w, h.log, err, "get booking")
		return
	}

	utils.ResponseSuccess(w, "success", booking)
}

// ListWebhookEvents handles GET /api/admin/tenants/{tenantID}/webhook-events
func (h *BookingHandler) ListWebhookEvents(w http.ResponseWriter, r *http.Request) {
	principal, ok := utils.GetPrincipalFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}
	tenantID, ok := parseUUIDParam(w, chi.URLParam(r, "tenantID"), "tenant id")
	if !ok {
		return
	}

	req := paginationFromQuery(r)
	events, err := h.service.ListWebhookEvents(r.Context(), principal, tenantID, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "list webhook events")
		return
	}

	utils.ResponseSuccess(w, "success", events)
}

func paginationFromQuery(r *http.Request) request.PaginatedRequest {
	query := r.URL.Query()
	return request.PaginatedRequest{
		Page:    utils.ParseInt(query.Get("page"), 1),
		PerPage: utils.ParseInt(query.Get("per_page"), request.DefaultPerPage),
	}
}
