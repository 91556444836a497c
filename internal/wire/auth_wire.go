package wire

import (
	"wedding-booking/internal/adaptor"
	"wedding-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireAuth(
	r chi.Router,
	authHandler *adaptor.AuthHandler,
	limiter *middleware.RateLimiter,
	log *zap.Logger,
) {
	r.With(limiter.Middleware(log)).Post("/api/admin/login", authHandler.Login)
}
