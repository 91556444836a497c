package wire

import (
	"wedding-booking/internal/adaptor"
	"wedding-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireWebhook(
	r chi.Router,
	webhookHandler *adaptor.WebhookHandler,
	limiter *middleware.RateLimiter,
	log *zap.Logger,
) {
	// Authenticated by the provider signature, not by a token.
	r.With(limiter.Middleware(log)).Post("/api/webhooks/stripe/{tenant}", webhookHandler.Stripe)
}
