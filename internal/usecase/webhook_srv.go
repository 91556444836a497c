package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"wedding-booking/internal/data/entity"
	"wedding-booking/internal/dto/request"
	"wedding-booking/pkg/utils"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Stripe event types the dispatcher acts on. Anything else is acknowledged
// and marked processed without side effects.
const (
	EventCheckoutCompleted     = "checkout.session.completed"
	EventAsyncPaymentSucceeded = "checkout.session.async_payment_succeeded"
	EventAsyncPaymentFailed    = "checkout.session.async_payment_failed"
	EventChargeRefunded        = "charge.refunded"
)

type WebhookOutcome string

const (
	OutcomeProcessed WebhookOutcome = "processed"
	OutcomeDuplicate WebhookOutcome = "duplicate"
	OutcomeIgnored   WebhookOutcome = "ignored"
)

type WebhookResult struct {
	EventID string
	Outcome WebhookOutcome
	Booking *entity.Booking
}

type WebhookService interface {
	HandleStripeWebhook(ctx context.Context, tenantSlug string, payload []byte, signature string) (*WebhookResult, error)
}

type webhookService struct {
	tenants   *TenantResolver
	ledger    *IdempotencyLedger
	writer    *BookingWriter
	notifier  *BookingNotifier
	secrets   *utils.WebhookSecrets
	tolerance time.Duration
	tracer    trace.Tracer
	log       *zap.Logger
}

func NewWebhookService(
	tenants *TenantResolver,
	ledger *IdempotencyLedger,
	writer *BookingWriter,
	notifier *BookingNotifier,
	secrets *utils.WebhookSecrets,
	tolerance time.Duration,
	log *zap.Logger,
) WebhookService {
	return &webhookService{
		tenants:   tenants,
		ledger:    ledger,
		writer:    writer,
		notifier:  notifier,
		secrets:   secrets,
		tolerance: tolerance,
		tracer:    otel.Tracer("wedding-booking/usecase"),
		log:       log.With(zap.String("service", "webhook")),
	}
}

func (s *webhookService) HandleStripeWebhook(ctx context.Context, tenantSlug string, payload []byte, signature string) (*WebhookResult, error) {
	ctx, span := s.tracer.Start(ctx, "webhook.handle",
		trace.WithAttributes(attribute.String("tenant.slug", tenantSlug)))
	defer span.End()

	result, err := s.handle(ctx, tenantSlug, payload, signature)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(Category(err)))
		return nil, err
	}
	span.SetAttributes(
		attribute.String("webhook.event_id", result.EventID),
		attribute.String("webhook.outcome", string(result.Outcome)),
	)
	return result, nil
}

// handle runs RECEIVED -> SIGNATURE_VERIFIED -> (DUPLICATE | VALIDATED)
// -> (PROCESSED | FAILED). Nothing is persisted before the signature checks out.
func (s *webhookService) handle(ctx context.Context, tenantSlug string, payload []byte, signature string) (*WebhookResult, error) {
	tenant, err := s.tenants.BySlug(ctx, tenantSlug)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.log.Warn("Webhook for unknown tenant", zap.String("tenant_slug", tenantSlug))
		}
		return nil, err
	}

	event, err := s.verify(tenant, payload, signature)
	if err != nil {
		return nil, err
	}

	log := s.log.With(
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("external_event_id", event.ID),
		zap.String("event_type", string(event.Type)),
	)

	_, proceed, err := s.ledger.RecordEvent(ctx, tenant.ID, event.ID, string(event.Type), summarize(event))
	if err != nil {
		log.Error("Failed to record webhook event", zap.Error(err))
		return nil, err
	}
	if !proceed {
		log.Info("Duplicate webhook delivery acknowledged")
		return &WebhookResult{EventID: event.ID, Outcome: OutcomeDuplicate}, nil
	}

	result, notifyType, err := s.dispatch(ctx, tenant, event)
	if err != nil {
		category := Category(err)
		// The caller may have hung up; the failure must still reach the ledger.
		if markErr := s.ledger.MarkFailed(context.WithoutCancel(ctx), tenant.ID, event.ID, category); markErr != nil {
			log.Error("Failed to mark webhook event failed", zap.Error(markErr))
		}
		log.Warn("Webhook event failed", zap.Error(err), zap.String("category", string(category)))
		return nil, err
	}

	// Side effects strictly after commit.
	if notifyType != "" {
		s.notifier.Notify(ctx, notifyType, event.ID, result.Booking)
	}

	log.Info("Webhook event handled", zap.String("outcome", string(result.Outcome)))
	return result, nil
}

func (s *webhookService) verify(tenant *entity.Tenant, payload []byte, signature string) (stripe.Event, error) {
	secret, ok := s.secrets.For(tenant.Slug)
	if !ok {
		s.log.Error("No webhook secret configured", zap.String("tenant_slug", tenant.Slug))
		return stripe.Event{}, ErrSignatureInvalid
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
		Tolerance:                s.tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		s.log.Warn("Rejected webhook with invalid signature",
			zap.String("security", "signature_invalid"),
			zap.String("tenant_slug", tenant.Slug),
			zap.Error(err),
		)
		return stripe.Event{}, fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	}
	if event.ID == "" {
		return stripe.Event{}, fmt.Errorf("%w: event without id", ErrSignatureInvalid)
	}
	return event, nil
}

// dispatch handles one admitted event. notifyType is empty when nothing
// changed that downstream consumers care about.
func (s *webhookService) dispatch(ctx context.Context, tenant *entity.Tenant, event stripe.Event) (*WebhookResult, string, error) {
	result := &WebhookResult{EventID: event.ID, Outcome: OutcomeProcessed}

	switch string(event.Type) {
	case EventCheckoutCompleted:
		session, err := decodeObject[stripe.CheckoutSession](event)
		if err != nil {
			return nil, "", err
		}
		booking, err := s.handleCheckoutCompleted(ctx, tenant, event.ID, session)
		if err != nil {
			return nil, "", err
		}
		result.Booking = booking
		return result, BookingEventCreated, nil

	case EventAsyncPaymentSucceeded, EventAsyncPaymentFailed:
		session, err := decodeObject[stripe.CheckoutSession](event)
		if err != nil {
			return nil, "", err
		}
		next, notifyType := entity.BookingStatusPaid, BookingEventPaid
		if string(event.Type) == EventAsyncPaymentFailed {
			next, notifyType = entity.BookingStatusCanceled, BookingEventCanceled
		}
		booking, changed, err := s.writer.TransitionBooking(ctx, tenant, BookingLookup{CheckoutSessionID: session.ID}, next, event.ID)
		if err != nil {
			return nil, "", err
		}
		result.Booking = booking
		if !changed {
			result.Outcome = OutcomeIgnored
			return result, "", nil
		}
		return result, notifyType, nil

	case EventChargeRefunded:
		charge, err := decodeObject[stripe.Charge](event)
		if err != nil {
			return nil, "", err
		}
		if !charge.Refunded {
			// Partial refund; the booking stays PAID.
			if err := s.ledger.MarkProcessed(ctx, tenant.ID, event.ID); err != nil {
				return nil, "", err
			}
			result.Outcome = OutcomeIgnored
			return result, "", nil
		}
		if charge.PaymentIntent == nil || charge.PaymentIntent.ID == "" {
			return nil, "", fmt.Errorf("%w: refund without payment intent", ErrValidation)
		}
		booking, changed, err := s.writer.TransitionBooking(ctx, tenant,
			BookingLookup{PaymentIntentID: charge.PaymentIntent.ID}, entity.BookingStatusRefunded, event.ID)
		if err != nil {
			return nil, "", err
		}
		result.Booking = booking
		if !changed {
			result.Outcome = OutcomeIgnored
			return result, "", nil
		}
		return result, BookingEventRefunded, nil

	default:
		if err := s.ledger.MarkProcessed(ctx, tenant.ID, event.ID); err != nil {
			return nil, "", err
		}
		result.Outcome = OutcomeIgnored
		return result, "", nil
	}
}

func (s *webhookService) handleCheckoutCompleted(ctx context.Context, tenant *entity.Tenant, eventID string, session *stripe.CheckoutSession) (*entity.Booking, error) {
	input, err := s.bookingInput(tenant, session)
	if err != nil {
		return nil, err
	}
	input.ExternalEventID = eventID
	return s.writer.WriteBooking(ctx, tenant, input)
}

// bookingInput validates the session metadata. Error messages name fields,
// never their values.
func (s *webhookService) bookingInput(tenant *entity.Tenant, session *stripe.CheckoutSession) (BookingInput, error) {
	md := session.Metadata
	meta := request.CheckoutMetadata{
		TenantID:      strings.TrimSpace(md[request.MetadataTenantID]),
		EventDate:     strings.TrimSpace(md[request.MetadataEventDate]),
		CustomerEmail: strings.TrimSpace(md[request.MetadataCustomerEmail]),
		CustomerName:  strings.TrimSpace(md[request.MetadataCustomerName]),
		AddonIDs:      utils.ParseList(md[request.MetadataAddonIDs]),
	}
	if errs := utils.ValidateStruct(&meta); len(errs) > 0 {
		s.log.Warn("Checkout metadata validation failed",
			zap.String("tenant_id", tenant.ID.String()),
			zap.Any("errors", errs),
		)
		return BookingInput{}, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	if meta.TenantID != tenant.Slug && meta.TenantID != tenant.ID.String() {
		s.log.Warn("Checkout metadata names a different tenant",
			zap.String("security", "tenant_mismatch"),
			zap.String("tenant_id", tenant.ID.String()),
		)
		return BookingInput{}, fmt.Errorf("%w: tenant_id does not match endpoint", ErrValidation)
	}

	eventDate, err := time.Parse(entity.DateLayout, meta.EventDate)
	if err != nil {
		return BookingInput{}, fmt.Errorf("%w: event_date", ErrValidation)
	}

	addonIDs := make([]uuid.UUID, 0, len(meta.AddonIDs))
	for _, raw := range meta.AddonIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return BookingInput{}, fmt.Errorf("%w: addon_ids", ErrValidation)
		}
		addonIDs = append(addonIDs, id)
	}

	status := entity.BookingStatusPending
	if session.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid {
		status = entity.BookingStatusPaid
	}

	var paymentIntentID *string
	if session.PaymentIntent != nil && session.PaymentIntent.ID != "" {
		id := session.PaymentIntent.ID
		paymentIntentID = &id
	}

	return BookingInput{
		EventDate:         eventDate,
		CustomerEmail:     meta.CustomerEmail,
		CustomerName:      meta.CustomerName,
		AddonIDs:          addonIDs,
		Status:            status,
		CheckoutSessionID: session.ID,
		PaymentIntentID:   paymentIntentID,
		AmountPaidCents:   session.AmountTotal,
	}, nil
}

func decodeObject[T any](event stripe.Event) (*T, error) {
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return nil, fmt.Errorf("%w: event without data object", ErrValidation)
	}
	var obj T
	if err := json.Unmarshal(event.Data.Raw, &obj); err != nil {
		return nil, fmt.Errorf("%w: malformed data object", ErrValidation)
	}
	return &obj, nil
}

// summarize keeps only the event type and the provider object id; metadata
// and customer fields never reach the ledger.
func summarize(event stripe.Event) string {
	summary := "type=" + string(event.Type)
	if event.Data != nil {
		if id, ok := event.Data.Object["id"].(string); ok && id != "" {
			summary += " object=" + id
		}
		if obj, ok := event.Data.Object["object"].(string); ok && obj != "" {
			summary += " kind=" + obj
		}
	}
	return summary
}
