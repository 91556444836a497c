package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingStatusPending  BookingStatus = "PENDING"
	BookingStatusPaid     BookingStatus = "PAID"
	BookingStatusCanceled BookingStatus = "CANCELED"
	BookingStatusRefunded BookingStatus = "REFUNDED"
)

// bookingTransitions lists the status changes a payment outcome may cause.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending: {BookingStatusPaid, BookingStatusCanceled},
	BookingStatusPaid:    {BookingStatusRefunded, BookingStatusCanceled},
}

// Holds reports whether a booking in this status occupies its slot.
func (s BookingStatus) Holds() bool {
	return s == BookingStatusPending || s == BookingStatusPaid
}

func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusPaid, BookingStatusCanceled, BookingStatusRefunded:
		return true
	}
	return false
}

// Commission is the platform/vendor split of a booking total.
type Commission struct {
	PlatformFeeCents  int64 `db:"platform_fee_cents"`
	VendorPayoutCents int64 `db:"vendor_payout_cents"`
}

type Booking struct {
	BaseNoDelete
	TenantID          uuid.UUID       `db:"tenant_id"`
	OrderID           string          `db:"order_id"`
	EventDate         time.Time       `db:"event_date"`
	CustomerID        uuid.UUID       `db:"customer_id"`
	TotalCents        int64           `db:"total_cents"`
	AmountPaidCents   int64           `db:"amount_paid_cents"`
	CommissionRate    decimal.Decimal `db:"commission_rate"`
	Commission                        // platform_fee_cents, vendor_payout_cents
	Status            BookingStatus   `db:"status"`
	CheckoutSessionID string          `db:"checkout_session_id"`
	PaymentIntentID   *string         `db:"payment_intent_id"`
	ExternalEventID   string          `db:"external_event_id"`

	Addons []*BookingAddon `db:"-"`
}
