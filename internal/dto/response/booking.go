package response

import (
	"time"

	"wedding-booking/internal/data/entity"
)

type BookingResponse struct {
	ID                string               `json:"id"`
	OrderID           string               `json:"order_id"`
	EventDate         string               `json:"event_date"`
	Status            entity.BookingStatus `json:"status"`
	TotalCents        int64                `json:"total_cents"`
	AmountPaidCents   int64                `json:"amount_paid_cents"`
	CommissionRate    string               `json:"commission_rate"`
	PlatformFeeCents  int64                `json:"platform_fee_cents"`
	VendorPayoutCents int64                `json:"vendor_payout_cents"`
	CreatedAt         time.Time            `json:"created_at"`
}

type BookingDetailResponse struct {
	BookingResponse
	CustomerID        string                 `json:"customer_id"`
	CheckoutSessionID string                 `json:"checkout_session_id"`
	PaymentIntentID   *string                `json:"payment_intent_id,omitempty"`
	Addons            []BookingAddonResponse `json:"addons"`
}

type BookingAddonResponse struct {
	AddonID        string `json:"addon_id"`
	Name           string `json:"name"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	LineTotalCents int64  `json:"line_total_cents"`
}

func BookingToResponse(b *entity.Booking) BookingResponse {
	return BookingResponse{
		ID:                b.ID.String(),
		OrderID:           b.OrderID,
		EventDate:         b.EventDate.Format(entity.DateLayout),
		Status:            b.Status,
		TotalCents:        b.TotalCents,
		AmountPaidCents:   b.AmountPaidCents,
		CommissionRate:    b.CommissionRate.String(),
		PlatformFeeCents:  b.PlatformFeeCents,
		VendorPayoutCents: b.VendorPayoutCents,
		CreatedAt:         b.CreatedAt,
	}
}

func BookingToDetailResponse(b *entity.Booking) BookingDetailResponse {
	addons := make([]BookingAddonResponse, 0, len(b.Addons))
	for _, item := range b.Addons {
		addons = append(addons, BookingAddonResponse{
			AddonID:        item.AddonID.String(),
			Name:           item.Name,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			LineTotalCents: item.LineTotalCents(),
		})
	}
	return BookingDetailResponse{
		BookingResponse:   BookingToResponse(b),
		CustomerID:        b.CustomerID.String(),
		CheckoutSessionID: b.CheckoutSessionID,
		PaymentIntentID:   b.PaymentIntentID,
		Addons:            addons,
	}
}
