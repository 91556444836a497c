package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"wedding-booking/internal/data/entity"
	"wedding-booking/internal/data/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) bookings(t *testing.T, tenant *entity.Tenant) []*entity.Booking {
	t.Helper()
	list, err := f.repo.Booking.List(context.Background(), tenant.ID, repository.BookingFilter{}, 100, 0)
	require.NoError(t, err)
	return list
}

func (f *fixture) paidCheckout(eventID, date, email string) checkout {
	return checkout{
		EventID:       eventID,
		SessionID:     "cs_" + eventID,
		PaymentIntent: "pi_" + eventID,
		TenantRef:     f.tenant.Slug,
		EventDate:     date,
		Email:         email,
		Name:          "Jane Doe",
		AmountTotal:   250000,
	}
}

func TestHandleStripeWebhook_CheckoutCompleted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c := f.paidCheckout("evt_paid", "2026-06-15", "  Jane.Doe@Example.COM ")
	c.AddonIDs = []string{f.addons[0].ID.String(), f.addons[1].ID.String(), f.addons[1].ID.String()}
	c.AmountTotal = 535000

	result, err := f.deliver(ctx, f.tenant.Slug, c.payload())
	require.NoError(t, err)
	assert.Equal(t, OutcomeProcessed, result.Outcome)
	require.NotNil(t, result.Booking)

	b := result.Booking
	assert.Equal(t, entity.BookingStatusPaid, b.Status)
	assert.Equal(t, int64(535000), b.TotalCents)
	assert.Equal(t, int64(66875), b.PlatformFeeCents)
	assert.Equal(t, int64(468125), b.VendorPayoutCents)
	assert.Equal(t, "2026-06-15", b.EventDate.Format(entity.DateLayout))
	assert.Regexp(t, `^WED-20260615-[0-9A-F]{8}$`, b.OrderID)
	assert.Len(t, b.Addons, 2)

	addons, err := f.repo.Booking.FindAddons(ctx, f.tenant.ID, b.ID)
	require.NoError(t, err)
	quantities := map[string]int{}
	for _, a := range addons {
		quantities[a.Name] = a.Quantity
	}
	assert.Equal(t, map[string]int{"Floral arch": 1, "String quartet": 2}, quantities)

	event := f.event(t, "evt_paid")
	assert.Equal(t, entity.WebhookEventStatusProcessed, event.Status)
	assert.NotContains(t, event.PayloadSummary, "example.com")
	assert.Equal(t, 1, f.store.CustomerCount(f.tenant.ID))

	msgs := f.pub.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "booking-events", msgs[0].Topic)
	assert.Equal(t, f.tenant.ID.String(), msgs[0].Key)
	assert.Equal(t, BookingEventCreated, msgs[0].Event.Type)
	assert.Equal(t, b.OrderID, msgs[0].Event.OrderID)
	assert.Equal(t, "evt_paid", msgs[0].Event.SourceEventID)
}

func TestHandleStripeWebhook_ReplayIsDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	payload := f.paidCheckout("evt_replay", "2026-07-01", "jane@example.com").payload()

	first, err := f.deliver(ctx, f.tenant.Slug, payload)
	require.NoError(t, err)
	assert.Equal(t, OutcomeProcessed, first.Outcome)

	for i := 0; i < 3; i++ {
		again, err := f.deliver(ctx, f.tenant.Slug, payload)
		require.NoError(t, err)
		assert.Equal(t, OutcomeDuplicate, again.Outcome)
		assert.Nil(t, again.Booking)
	}

	assert.Len(t, f.bookings(t, f.tenant), 1)
	assert.Len(t, f.pub.Messages(), 1)
	replayed := f.event(t, "evt_replay")
	assert.Equal(t, 4, replayed.Attempts)
	assert.Equal(t, entity.WebhookEventStatusProcessed, replayed.Status, "redeliveries never overwrite the stored status")
}

func TestHandleStripeWebhook_InvalidSignature(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	payload := f.paidCheckout("evt_forged", "2026-06-15", "jane@example.com").payload()

	_, err := f.service.Webhook.HandleStripeWebhook(ctx, f.tenant.Slug, payload, sign(payload, "whsec_wrong"))
	assert.ErrorIs(t, err, ErrSignatureInvalid)

	_, err = f.service.Webhook.HandleStripeWebhook(ctx, f.tenant.Slug, payload, "")
	assert.ErrorIs(t, err, ErrSignatureInvalid)

	tampered := append([]byte(nil), payload...)
	tampered[len(tampered)-2] = ' '
	_, err = f.service.Webhook.HandleStripeWebhook(ctx, f.tenant.Slug, tampered, sign(payload, testWebhookSecret))
	assert.ErrorIs(t, err, ErrSignatureInvalid)

	assert.Nil(t, f.event(t, "evt_forged"))
	assert.Empty(t, f.bookings(t, f.tenant))
	assert.Empty(t, f.pub.Messages())
}

func TestHandleStripeWebhook_UnknownTenant(t *testing.T) {
	f := newFixture(t)
	payload := f.paidCheckout("evt_nowhere", "2026-06-15", "jane@example.com").payload()

	_, err := f.deliver(context.Background(), "no-such-vendor", payload)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, f.event(t, "evt_nowhere"))
}

func TestHandleStripeWebhook_DateAlreadyBooked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.deliver(ctx, f.tenant.Slug, f.paidCheckout("evt_first", "2026-06-15", "alice@example.com").payload())
	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusPaid, first.Booking.Status)

	_, err = f.deliver(ctx, f.tenant.Slug, f.paidCheckout("evt_second", "2026-06-15", "bob@example.com").payload())
	assert.ErrorIs(t, err, ErrDateUnavailable)

	second := f.event(t, "evt_second")
	assert.Equal(t, entity.WebhookEventStatusFailed, second.Status)
	require.NotNil(t, second.LastError)
	assert.Equal(t, entity.ErrorCategoryDateUnavailable, *second.LastError)
	assert.NotContains(t, string(*second.LastError), "bob")
	assert.NotContains(t, second.PayloadSummary, "bob")

	assert.Len(t, f.bookings(t, f.tenant), 1)
	assert.Equal(t, 1, f.store.CustomerCount(f.tenant.ID), "losing customer must not be stored")

	// Final failure: the redelivery is not reprocessed.
	again, err := f.deliver(ctx, f.tenant.Slug, f.paidCheckout("evt_second", "2026-06-15", "bob@example.com").payload())
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, again.Outcome)
}

func TestHandleStripeWebhook_ConcurrentCheckoutsSameDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	deliveries := []checkout{
		f.paidCheckout("evt_a", "2026-06-15", "alice@example.com"),
		f.paidCheckout("evt_b", "2026-06-15", "bob@example.com"),
	}
	errs := make([]error, len(deliveries))
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i, c := range deliveries {
		wg.Add(1)
		go func(i int, payload []byte) {
			defer wg.Done()
			<-start
			_, errs[i] = f.deliver(ctx, f.tenant.Slug, payload)
		}(i, c.payload())
	}
	close(start)
	wg.Wait()

	winner, loser := -1, -1
	for i, err := range errs {
		if err == nil {
			winner = i
		} else {
			assert.ErrorIs(t, err, ErrDateUnavailable)
			loser = i
		}
	}
	require.NotEqual(t, -1, winner, "one delivery must win the date")
	require.NotEqual(t, -1, loser, "one delivery must lose the date")

	bookings := f.bookings(t, f.tenant)
	require.Len(t, bookings, 1)
	assert.Equal(t, entity.BookingStatusPaid, bookings[0].Status)
	require.NotNil(t, bookings[0].PaymentIntentID)
	assert.Equal(t, deliveries[winner].PaymentIntent, *bookings[0].PaymentIntentID)

	assert.Equal(t, entity.WebhookEventStatusProcessed, f.event(t, deliveries[winner].EventID).Status)
	lost := f.event(t, deliveries[loser].EventID)
	assert.Equal(t, entity.WebhookEventStatusFailed, lost.Status)
	require.NotNil(t, lost.LastError)
	assert.Equal(t, entity.ErrorCategoryDateUnavailable, *lost.LastError)

	assert.Equal(t, 1, f.store.CustomerCount(f.tenant.ID), "losing customer must not be stored")
	msgs := f.pub.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, deliveries[winner].EventID, msgs[0].Event.SourceEventID)
}

func TestHandleStripeWebhook_CrashedAttemptIsReclaimed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Rows left PENDING by a worker that died before settling them.
	leave := func(eventID string, at time.Time) {
		_, inserted, err := f.repo.WebhookEvent.Record(ctx, &entity.WebhookEvent{
			BaseNoDelete:    entity.BaseNoDelete{ID: uuid.New(), CreatedAt: at},
			TenantID:        f.tenant.ID,
			ExternalEventID: eventID,
			EventType:       EventCheckoutCompleted,
		})
		require.NoError(t, err)
		require.True(t, inserted)
	}
	leave("evt_inflight", time.Now())
	leave("evt_crashed", time.Now().Add(-2*f.config.Booking.PendingLease))

	inflight, err := f.deliver(ctx, f.tenant.Slug, f.paidCheckout("evt_inflight", "2026-08-08", "amy@example.com").payload())
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, inflight.Outcome, "an attempt inside its lease is left alone")
	assert.Equal(t, entity.WebhookEventStatusPending, f.event(t, "evt_inflight").Status)

	crashed, err := f.deliver(ctx, f.tenant.Slug, f.paidCheckout("evt_crashed", "2026-08-15", "jane@example.com").payload())
	require.NoError(t, err)
	assert.Equal(t, OutcomeProcessed, crashed.Outcome)
	require.NotNil(t, crashed.Booking)
	assert.Equal(t, entity.BookingStatusPaid, crashed.Booking.Status)

	event := f.event(t, "evt_crashed")
	assert.Equal(t, entity.WebhookEventStatusProcessed, event.Status)
	assert.Equal(t, 2, event.Attempts)
	assert.Len(t, f.bookings(t, f.tenant), 1)

	again, err := f.deliver(ctx, f.tenant.Slug, f.paidCheckout("evt_crashed", "2026-08-15", "jane@example.com").payload())
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, again.Outcome)
}

// deadlineBoundEvents refuses writes on a finished context, like a real
// database driver does.
type deadlineBoundEvents struct {
	repository.WebhookEventRepository
}

func (e deadlineBoundEvents) MarkFailed(ctx context.Context, tenantID uuid.UUID, externalEventID string, category entity.ErrorCategory) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.WebhookEventRepository.MarkFailed(ctx, tenantID, externalEventID, category)
}

func TestHandleStripeWebhook_CallerHangUpStillSettlesLedger(t *testing.T) {
	f := newFixtureWith(t, func(f *fixture) {
		f.repo.WebhookEvent = deadlineBoundEvents{f.repo.WebhookEvent}
	})
	c := f.paidCheckout("evt_hangup", "2026-09-12", "jane@example.com")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.deliver(ctx, f.tenant.Slug, c.payload())
	assert.ErrorIs(t, err, ErrPersistence)

	event := f.event(t, "evt_hangup")
	assert.Equal(t, entity.WebhookEventStatusFailed, event.Status)
	require.NotNil(t, event.LastError)
	assert.Equal(t, entity.ErrorCategoryPersistence, *event.LastError)
	assert.Empty(t, f.bookings(t, f.tenant))

	retried, err := f.deliver(context.Background(), f.tenant.Slug, c.payload())
	require.NoError(t, err)
	assert.Equal(t, OutcomeProcessed, retried.Outcome)
	assert.Equal(t, entity.BookingStatusPaid, retried.Booking.Status)
	assert.Equal(t, entity.WebhookEventStatusProcessed, f.event(t, "evt_hangup").Status)
}

func TestHandleStripeWebhook_SameDateOtherTenant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other := f.addTenant("rose-garden", 180000, "10")

	_, err := f.deliver(ctx, f.tenant.Slug, f.paidCheckout("evt_a", "2026-06-15", "a@example.com").payload())
	require.NoError(t, err)

	c := f.paidCheckout("evt_a", "2026-06-15", "b@example.com")
	c.TenantRef = other.ID.String()
	result, err := f.deliver(ctx, other.Slug, c.payload())
	require.NoError(t, err)
	assert.Equal(t, OutcomeProcessed, result.Outcome)
	assert.Equal(t, int64(180000), result.Booking.TotalCents)
	assert.Equal(t, int64(18000), result.Booking.PlatformFeeCents)
}

func TestHandleStripeWebhook_ValidationFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other := f.addTenant("rose-garden", 100000, "10")
	foreignAddon := f.addAddon(other, "Foreign", 1000, true)

	tests := []struct {
		name   string
		mutate func(c *checkout)
	}{
		{"bad email", func(c *checkout) { c.Email = "not-an-email" }},
		{"missing name", func(c *checkout) { c.Name = "" }},
		{"bad date", func(c *checkout) { c.EventDate = "15/06/2026" }},
		{"impossible date", func(c *checkout) { c.EventDate = "2026-02-30" }},
		{"bad addon id", func(c *checkout) { c.AddonIDs = []string{"floral"} }},
		{"inactive addon", func(c *checkout) { c.AddonIDs = []string{f.addons[2].ID.String()} }},
		{"other tenant addon", func(c *checkout) { c.AddonIDs = []string{foreignAddon.ID.String()} }},
		{"tenant mismatch", func(c *checkout) { c.TenantRef = other.Slug }},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := f.paidCheckout("evt_invalid_"+string(rune('a'+i)), "2026-08-0"+string(rune('1'+i%9)), "jane@example.com")
			tt.mutate(&c)

			_, err := f.deliver(ctx, f.tenant.Slug, c.payload())
			assert.ErrorIs(t, err, ErrValidation)

			event := f.event(t, c.EventID)
			require.NotNil(t, event)
			assert.Equal(t, entity.WebhookEventStatusFailed, event.Status)
			require.NotNil(t, event.LastError)
			assert.Equal(t, entity.ErrorCategoryValidation, *event.LastError)
		})
	}

	assert.Empty(t, f.bookings(t, f.tenant))
	assert.Equal(t, 0, f.store.CustomerCount(f.tenant.ID))
	assert.Empty(t, f.pub.Messages())
}

func TestHandleStripeWebhook_AsyncPaymentSucceeded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c := f.paidCheckout("evt_pending", "2026-09-12", "jane@example.com")
	c.PaymentStatus = "unpaid"
	created, err := f.deliver(ctx, f.tenant.Slug, c.payload())
	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusPending, created.Booking.Status)

	paid, err := f.deliver(ctx, f.tenant.Slug, sessionPayload("evt_async_ok", EventAsyncPaymentSucceeded, c.SessionID))
	require.NoError(t, err)
	assert.Equal(t, OutcomeProcessed, paid.Outcome)
	assert.Equal(t, entity.BookingStatusPaid, paid.Booking.Status)

	stored, err := f.repo.Booking.FindByID(ctx, f.tenant.ID, created.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusPaid, stored.Status)
	assert.Equal(t, entity.WebhookEventStatusProcessed, f.event(t, "evt_async_ok").Status)

	msgs := f.pub.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, BookingEventPaid, msgs[1].Event.Type)
}

func TestHandleStripeWebhook_AsyncPaymentFailedFreesDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c := f.paidCheckout("evt_pending", "2026-09-12", "jane@example.com")
	c.PaymentStatus = "unpaid"
	_, err := f.deliver(ctx, f.tenant.Slug, c.payload())
	require.NoError(t, err)

	canceled, err := f.deliver(ctx, f.tenant.Slug, sessionPayload("evt_async_fail", EventAsyncPaymentFailed, c.SessionID))
	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusCanceled, canceled.Booking.Status)

	rebook, err := f.deliver(ctx, f.tenant.Slug, f.paidCheckout("evt_rebook", "2026-09-12", "other@example.com").payload())
	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusPaid, rebook.Booking.Status)
	assert.Len(t, f.bookings(t, f.tenant), 2)
}

func TestHandleStripeWebhook_Refunds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c := f.paidCheckout("evt_paid", "2026-10-03", "jane@example.com")
	created, err := f.deliver(ctx, f.tenant.Slug, c.payload())
	require.NoError(t, err)

	partial, err := f.deliver(ctx, f.tenant.Slug, refundPayload("evt_partial", c.PaymentIntent, false))
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, partial.Outcome)
	assert.Equal(t, entity.WebhookEventStatusProcessed, f.event(t, "evt_partial").Status)

	full, err := f.deliver(ctx, f.tenant.Slug, refundPayload("evt_full", c.PaymentIntent, true))
	require.NoError(t, err)
	assert.Equal(t, OutcomeProcessed, full.Outcome)
	assert.Equal(t, entity.BookingStatusRefunded, full.Booking.Status)

	stored, err := f.repo.Booking.FindByID(ctx, f.tenant.ID, created.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusRefunded, stored.Status)

	// A refunded booking cannot be paid again.
	late, err := f.deliver(ctx, f.tenant.Slug, sessionPayload("evt_late", EventAsyncPaymentSucceeded, c.SessionID))
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, late.Outcome)
	assert.Equal(t, entity.BookingStatusRefunded, late.Booking.Status)

	types := []string{}
	for _, m := range f.pub.Messages() {
		types = append(types, m.Event.Type)
	}
	assert.Equal(t, []string{BookingEventCreated, BookingEventRefunded}, types)
}

func TestHandleStripeWebhook_RefundWhileBookingRowBusy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c := f.paidCheckout("evt_paid", "2026-10-10", "jane@example.com")
	created, err := f.deliver(ctx, f.tenant.Slug, c.payload())
	require.NoError(t, err)

	locked := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- f.repo.Tx.WithinTx(ctx, func(ctx context.Context, tx repository.TxRepository) error {
			b, err := tx.FindBookingByPaymentIntent(ctx, f.tenant.ID, c.PaymentIntent)
			if err != nil {
				return err
			}
			if b == nil {
				return errors.New("booking missing")
			}
			close(locked)
			<-release
			return nil
		})
	}()
	select {
	case <-locked:
	case err := <-done:
		t.Fatalf("holder transaction ended early: %v", err)
	}

	refund := refundPayload("evt_refund", c.PaymentIntent, true)
	_, err = f.deliver(ctx, f.tenant.Slug, refund)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.NotErrorIs(t, err, ErrDateUnavailable)

	event := f.event(t, "evt_refund")
	assert.Equal(t, entity.WebhookEventStatusFailed, event.Status)
	require.NotNil(t, event.LastError)
	assert.Equal(t, entity.ErrorCategoryPersistence, *event.LastError)

	close(release)
	require.NoError(t, <-done)

	retried, err := f.deliver(ctx, f.tenant.Slug, refund)
	require.NoError(t, err)
	assert.Equal(t, OutcomeProcessed, retried.Outcome)
	assert.Equal(t, entity.BookingStatusRefunded, retried.Booking.Status)

	stored, err := f.repo.Booking.FindByID(ctx, f.tenant.ID, created.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusRefunded, stored.Status)
	assert.Equal(t, entity.WebhookEventStatusProcessed, f.event(t, "evt_refund").Status)
}

func TestHandleStripeWebhook_OutOfOrderDeliveryIsRetried(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c := f.paidCheckout("evt_created", "2026-11-21", "jane@example.com")
	c.PaymentStatus = "unpaid"
	early := sessionPayload("evt_early", EventAsyncPaymentSucceeded, c.SessionID)

	_, err := f.deliver(ctx, f.tenant.Slug, early)
	assert.ErrorIs(t, err, ErrNotFound)
	event := f.event(t, "evt_early")
	require.NotNil(t, event.LastError)
	assert.Equal(t, entity.ErrorCategoryNotFound, *event.LastError)

	_, err = f.deliver(ctx, f.tenant.Slug, c.payload())
	require.NoError(t, err)

	retried, err := f.deliver(ctx, f.tenant.Slug, early)
	require.NoError(t, err)
	assert.Equal(t, OutcomeProcessed, retried.Outcome)
	assert.Equal(t, entity.BookingStatusPaid, retried.Booking.Status)
	assert.Equal(t, 2, f.event(t, "evt_early").Attempts)
}

func TestHandleStripeWebhook_UnhandledTypeIsIgnored(t *testing.T) {
	f := newFixture(t)

	result, err := f.deliver(context.Background(), f.tenant.Slug, eventPayload("evt_other", "customer.created", map[string]any{
		"id":     "cus_123",
		"object": "customer",
		"email":  "jane@example.com",
	}))
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, result.Outcome)

	event := f.event(t, "evt_other")
	assert.Equal(t, entity.WebhookEventStatusProcessed, event.Status)
	assert.Equal(t, "type=customer.created object=cus_123 kind=customer", event.PayloadSummary)
}

func TestHandleStripeWebhook_CommissionPreconditionIsRetryable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	greedy := f.addTenant("greedy-venue", 100000, "80")

	c := f.paidCheckout("evt_greedy", "2026-12-31", "jane@example.com")
	c.TenantRef = greedy.Slug
	_, err := f.deliver(ctx, greedy.Slug, c.payload())
	assert.ErrorIs(t, err, ErrCommissionPrecondition)

	event := f.eventFor(t, greedy, "evt_greedy")
	require.NotNil(t, event.LastError)
	assert.Equal(t, entity.ErrorCategoryPersistence, *event.LastError)
	assert.Empty(t, f.bookings(t, greedy))
	assert.Equal(t, 0, f.store.CustomerCount(greedy.ID))
}
