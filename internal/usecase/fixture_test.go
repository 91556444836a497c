package usecase

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"wedding-booking/internal/data/entity"
	"wedding-booking/internal/data/memstore"
	"wedding-booking/internal/data/repository"
	"wedding-booking/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
)

const testWebhookSecret = "whsec_test_fixture"

type publishedMessage struct {
	Topic string
	Key   string
	Event BookingEvent
}

type recordingPublisher struct {
	mu       sync.Mutex
	messages []publishedMessage
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, key, value []byte) error {
	var event BookingEvent
	if err := json.Unmarshal(value, &event); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, publishedMessage{Topic: topic, Key: string(key), Event: event})
	return nil
}

func (p *recordingPublisher) Messages() []publishedMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishedMessage(nil), p.messages...)
}

type fixture struct {
	store   *memstore.Store
	repo    *repository.Repository
	config  *utils.Config
	service *Service
	pub     *recordingPublisher
	tenant  *entity.Tenant
	addons  []*entity.Addon
}

func testConfig() *utils.Config {
	return &utils.Config{
		JWT:    utils.JWTConfig{Secret: "test-jwt-secret", ExpiryHours: 1},
		Stripe: utils.StripeConfig{WebhookSecret: testWebhookSecret, Tolerance: 5 * time.Minute},
		Booking: utils.BookingConfig{
			TxTimeout:         5 * time.Second,
			PendingLease:      30 * time.Second,
			MinCommissionRate: decimal.RequireFromString("0.5"),
			MaxCommissionRate: decimal.RequireFromString("50"),
		},
		Kafka: utils.KafkaConfig{BookingTopic: "booking-events"},
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWith(t, nil)
}

// newFixtureWith lets a test adjust the config, or swap repositories, before
// the service is built.
func newFixtureWith(t *testing.T, adjust func(f *fixture)) *fixture {
	t.Helper()

	config := testConfig()
	store := memstore.New(repository.TxOptions{TxTimeout: config.Booking.TxTimeout}, zap.NewNop())
	f := &fixture{
		store:  store,
		repo:   store.Repository(),
		config: config,
		pub:    &recordingPublisher{},
	}
	f.tenant = f.addTenant("bella-weddings", 250000, "12.5")
	f.addons = []*entity.Addon{
		f.addAddon(f.tenant, "Floral arch", 45000, true),
		f.addAddon(f.tenant, "String quartet", 120000, true),
		f.addAddon(f.tenant, "Retired photo booth", 30000, false),
	}
	if adjust != nil {
		adjust(f)
	}
	f.service = NewService(f.repo, f.config, nil, f.pub, zap.NewNop())
	return f
}

func (f *fixture) addTenant(slug string, basePrice int64, rate string) *entity.Tenant {
	now := time.Now()
	tenant := &entity.Tenant{
		BaseNoDelete:   entity.BaseNoDelete{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Slug:           slug,
		Name:           strings.ToUpper(slug),
		BasePriceCents: basePrice,
		CommissionRate: decimal.RequireFromString(rate),
		Currency:       "usd",
		IsActive:       true,
	}
	f.store.AddTenant(tenant)
	return tenant
}

func (f *fixture) addAddon(tenant *entity.Tenant, name string, price int64, active bool) *entity.Addon {
	now := time.Now()
	addon := &entity.Addon{
		BaseNoDelete:   entity.BaseNoDelete{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		TenantID:       tenant.ID,
		Name:           name,
		UnitPriceCents: price,
		IsActive:       active,
	}
	f.store.AddAddon(addon)
	return addon
}

func (f *fixture) event(t *testing.T, eventID string) *entity.WebhookEvent {
	t.Helper()
	return f.eventFor(t, f.tenant, eventID)
}

func (f *fixture) eventFor(t *testing.T, tenant *entity.Tenant, eventID string) *entity.WebhookEvent {
	t.Helper()
	event, err := f.repo.WebhookEvent.FindByExternalID(context.Background(), tenant.ID, eventID)
	require.NoError(t, err)
	return event
}

// checkout describes a checkout.session.completed delivery.
type checkout struct {
	EventID       string
	SessionID     string
	PaymentIntent string
	TenantRef     string
	EventDate     string
	Email         string
	Name          string
	AddonIDs      []string
	PaymentStatus string
	AmountTotal   int64
}

func (c checkout) payload() []byte {
	metadata := map[string]string{
		"tenant_id":      c.TenantRef,
		"event_date":     c.EventDate,
		"customer_email": c.Email,
		"customer_name":  c.Name,
	}
	if len(c.AddonIDs) > 0 {
		metadata["addon_ids"] = strings.Join(c.AddonIDs, ",")
	}
	status := c.PaymentStatus
	if status == "" {
		status = "paid"
	}
	object := map[string]any{
		"id":             c.SessionID,
		"object":         "checkout.session",
		"payment_status": status,
		"amount_total":   c.AmountTotal,
		"metadata":       metadata,
	}
	if c.PaymentIntent != "" {
		object["payment_intent"] = c.PaymentIntent
	}
	return eventPayload(c.EventID, EventCheckoutCompleted, object)
}

func eventPayload(eventID, eventType string, object map[string]any) []byte {
	body, _ := json.Marshal(map[string]any{
		"id":          eventID,
		"object":      "event",
		"type":        eventType,
		"api_version": "2023-10-16",
		"created":     time.Now().Unix(),
		"data":        map[string]any{"object": object},
	})
	return body
}

func sessionPayload(eventID, eventType, sessionID string) []byte {
	return eventPayload(eventID, eventType, map[string]any{
		"id":     sessionID,
		"object": "checkout.session",
	})
}

func refundPayload(eventID, paymentIntent string, full bool) []byte {
	return eventPayload(eventID, EventChargeRefunded, map[string]any{
		"id":             "ch_" + eventID,
		"object":         "charge",
		"refunded":       full,
		"payment_intent": paymentIntent,
	})
}

func sign(payload []byte, secret string) string {
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: time.Now(),
	})
	return signed.Header
}

func (f *fixture) deliver(ctx context.Context, slug string, payload []byte) (*WebhookResult, error) {
	return f.service.Webhook.HandleStripeWebhook(ctx, slug, payload, sign(payload, testWebhookSecret))
}
