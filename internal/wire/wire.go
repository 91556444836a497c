package wire

import (
	"net/http"

	"wedding-booking/internal/adaptor"
	"wedding-booking/internal/data/repository"
	"wedding-booking/internal/usecase"
	"wedding-booking/pkg/middleware"
	"wedding-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

// App holds the wired router and the pieces the server loop needs.
type App struct {
	Router  *chi.Mux
	Limiter *middleware.RateLimiter
}

// Deps are the optional outer adapters. Cache may be nil.
type Deps struct {
	Cache     usecase.TenantCache
	Publisher usecase.Publisher
}

func Wiring(repo *repository.Repository, config *utils.Config, deps Deps, logger *zap.Logger) *App {
	service := usecase.NewService(repo, config, deps.Cache, deps.Publisher, logger)
	handler := adaptor.NewHandler(service, logger)
	limiter := middleware.NewRateLimiter(config.RateLimit)

	return &App{
		Router:  setupRouter(handler, limiter, config, logger),
		Limiter: limiter,
	}
}

func setupRouter(
	handler *adaptor.Handler,
	limiter *middleware.RateLimiter,
	config *utils.Config,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing(otel.GetTracerProvider()))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))

	tokens := utils.NewTokenIssuer(config.JWT)

	wireWebhook(r, handler.Webhook, limiter, logger)
	wireAuth(r, handler.Auth, limiter, logger)
	wireTenant(r, handler.Tenant, handler.Booking, tokens, logger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
