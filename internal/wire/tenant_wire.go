package wire

import (
	"wedding-booking/internal/adaptor"
	"wedding-booking/pkg/middleware"
	"wedding-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireTenant(
	r chi.Router,
	tenantHandler *adaptor.TenantHandler,
	bookingHandler *adaptor.BookingHandler,
	tokens *utils.TokenIssuer,
	log *zap.Logger,
) {
	// Every admin route needs a token; which tenant it may touch is decided per request.
	r.Route("/api/admin/tenants/{tenantID}", func(r chi.Router) {
		r.Use(middleware.Auth(tokens, log))

		r.Get("/", tenantHandler.GetTenant)
		r.Put("/commission", tenantHandler.UpdateCommission) // platform admin only

		r.Get("/bookings", bookingHandler.ListBookings)
		r.Get("/bookings/{id}", bookingHandler.GetBooking)

		r.Get("/webhook-events", bookingHandler.ListWebhookEvents)
	})
}
