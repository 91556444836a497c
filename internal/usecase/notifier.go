package usecase

import (
	"context"
	"encoding/json"
	"time"

	"wedding-booking/internal/data/entity"

	"go.uber.org/zap"
)

// Publisher is the transport the notifier writes to. The Kafka producer and the
// log-only producer both satisfy it.
type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

const (
	BookingEventCreated  = "booking.created"
	BookingEventPaid     = "booking.paid"
	BookingEventCanceled = "booking.canceled"
	BookingEventRefunded = "booking.refunded"
)

// BookingEvent is announced after commit. It carries ids and amounts only,
// never customer contact details.
type BookingEvent struct {
	Type              string    `json:"type"`
	TenantID          string    `json:"tenant_id"`
	BookingID         string    `json:"booking_id"`
	OrderID           string    `json:"order_id"`
	EventDate         string    `json:"event_date"`
	Status            string    `json:"status"`
	TotalCents        int64     `json:"total_cents"`
	PlatformFeeCents  int64     `json:"platform_fee_cents"`
	VendorPayoutCents int64     `json:"vendor_payout_cents"`
	SourceEventID     string    `json:"source_event_id"`
	OccurredAt        time.Time `json:"occurred_at"`
}

const notifyTimeout = 3 * time.Second

type BookingNotifier struct {
	pub   Publisher
	topic string
	log   *zap.Logger
}

func NewBookingNotifier(pub Publisher, topic string, log *zap.Logger) *BookingNotifier {
	return &BookingNotifier{
		pub:   pub,
		topic: topic,
		log:   log.With(zap.String("service", "notifier")),
	}
}

// Notify must only be called after the booking transaction committed.
// Failures are logged; the booking is already durable.
func (n *BookingNotifier) Notify(ctx context.Context, eventType, sourceEventID string, b *entity.Booking) {
	if n == nil || n.pub == nil || b == nil {
		return
	}

	value, err := json.Marshal(BookingEvent{
		Type:              eventType,
		TenantID:          b.TenantID.String(),
		BookingID:         b.ID.String(),
		OrderID:           b.OrderID,
		EventDate:         b.EventDate.Format(entity.DateLayout),
		Status:            string(b.Status),
		TotalCents:        b.TotalCents,
		PlatformFeeCents:  b.PlatformFeeCents,
		VendorPayoutCents: b.VendorPayoutCents,
		SourceEventID:     sourceEventID,
		OccurredAt:        time.Now().UTC(),
	})
	if err != nil {
		n.log.Error("Failed to encode booking event", zap.Error(err), zap.String("order_id", b.OrderID))
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	if err := n.pub.Publish(ctx, n.topic, []byte(b.TenantID.String()), value); err != nil {
		n.log.Warn("Failed to publish booking event",
			zap.Error(err),
			zap.String("type", eventType),
			zap.String("order_id", b.OrderID),
		)
	}
}
