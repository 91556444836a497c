package usecase

import (
	"wedding-booking/internal/data/repository"
	"wedding-booking/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Auth    AuthService
	Booking BookingService
	Tenant  TenantService
	Webhook WebhookService
}

// NewService wires the use cases. cache may be nil; publisher may not.
func NewService(repo *repository.Repository, config *utils.Config, cache TenantCache, publisher Publisher, log *zap.Logger) *Service {
	commission := NewCommissionCalculator(config.Booking, log)
	resolver := NewTenantResolver(repo.Tenant, cache, log)
	writer := NewBookingWriter(repo.Tx, NewSlotLockGuard(log), commission, log)

	return &Service{
		Auth:    NewAuthService(repo.Admin, utils.NewTokenIssuer(config.JWT), log),
		Booking: NewBookingService(repo, log),
		Tenant:  NewTenantService(repo.Tenant, resolver, commission, log),
		Webhook: NewWebhookService(
			resolver,
			NewIdempotencyLedger(repo.WebhookEvent, config.Booking.PendingLease, log),
			writer,
			NewBookingNotifier(publisher, config.Kafka.BookingTopic, log),
			utils.NewWebhookSecrets(config.Stripe),
			config.Stripe.Tolerance,
			log,
		),
	}
}
