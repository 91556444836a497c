package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"wedding-booking/internal/data/entity"
	"wedding-booking/internal/data/repository"
	"wedding-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BookingInput is a validated booking intent. Prices are never part of it;
// they are read from the catalog inside the transaction.
type BookingInput struct {
	EventDate         time.Time
	CustomerEmail     string
	CustomerName      string
	AddonIDs          []uuid.UUID // repeats mean quantity
	Status            entity.BookingStatus
	CheckoutSessionID string
	PaymentIntentID   *string
	AmountPaidCents   int64
	ExternalEventID   string
}

// BookingLookup identifies an existing booking by one of its provider references.
type BookingLookup struct {
	CheckoutSessionID string
	PaymentIntentID   string
}

type BookingWriter struct {
	tx         repository.Transactor
	guard      *SlotLockGuard
	commission *CommissionCalculator
	log        *zap.Logger
}

func NewBookingWriter(tx repository.Transactor, guard *SlotLockGuard, commission *CommissionCalculator, log *zap.Logger) *BookingWriter {
	return &BookingWriter{
		tx:         tx,
		guard:      guard,
		commission: commission,
		log:        log.With(zap.String("service", "booking_writer")),
	}
}

// WriteBooking creates the booking for one slot. Everything from the slot lock
// to the ledger PROCESSED flip commits in a single transaction, so a loser
// leaves no customer, booking or line item behind.
func (w *BookingWriter) WriteBooking(ctx context.Context, tenant *entity.Tenant, in BookingInput) (*entity.Booking, error) {
	if !in.Status.Holds() {
		return nil, fmt.Errorf("%w: new booking must be PENDING or PAID", ErrValidation)
	}

	eventDate := entity.SlotDate(in.EventDate)
	quantities, order := countAddons(in.AddonIDs)

	var booking *entity.Booking
	err := w.tx.WithinTx(ctx, func(ctx context.Context, tx repository.TxRepository) error {
		if _, err := w.guard.Acquire(ctx, tx, tenant.ID, eventDate); err != nil {
			return err
		}

		addons, err := tx.FindAddonsByIDs(ctx, tenant.ID, order)
		if err != nil {
			return err
		}
		if len(addons) != len(order) {
			return fmt.Errorf("%w: unknown or inactive add-on", ErrValidation)
		}

		now := time.Now()
		bookingID := uuid.New()
		total := tenant.BasePriceCents
		items := make([]*entity.BookingAddon, 0, len(addons))
		for _, addon := range addons {
			item := &entity.BookingAddon{
				BaseSimple:     entity.NewBaseSimple(now),
				TenantID:       tenant.ID,
				BookingID:      bookingID,
				AddonID:        addon.ID,
				Name:           addon.Name,
				Quantity:       quantities[addon.ID],
				UnitPriceCents: addon.UnitPriceCents,
			}
			total += item.LineTotalCents()
			items = append(items, item)
		}

		commission, err := w.commission.Calculate(total, tenant.CommissionRate)
		if err != nil {
			return err
		}

		customer := &entity.Customer{
			BaseNoDelete: entity.NewBase(now),
			TenantID:     tenant.ID,
			Email:        strings.ToLower(strings.TrimSpace(in.CustomerEmail)),
			Name:         strings.TrimSpace(in.CustomerName),
		}
		if err := tx.UpsertCustomer(ctx, customer); err != nil {
			return err
		}

		b := &entity.Booking{
			BaseNoDelete:      entity.BaseNoDelete{ID: bookingID, CreatedAt: now, UpdatedAt: now},
			TenantID:          tenant.ID,
			OrderID:           utils.GenerateOrderID(eventDate),
			EventDate:         eventDate,
			CustomerID:        customer.ID,
			TotalCents:        total,
			AmountPaidCents:   in.AmountPaidCents,
			CommissionRate:    tenant.CommissionRate,
			Commission:        commission,
			Status:            in.Status,
			CheckoutSessionID: in.CheckoutSessionID,
			PaymentIntentID:   in.PaymentIntentID,
			ExternalEventID:   in.ExternalEventID,
		}
		if err := tx.CreateBooking(ctx, b); err != nil {
			return err
		}
		if err := tx.CreateBookingAddons(ctx, items); err != nil {
			return err
		}
		if err := tx.MarkEventProcessed(ctx, tenant.ID, in.ExternalEventID); err != nil {
			return err
		}

		b.Addons = items
		booking = b
		return nil
	})
	if err != nil {
		return nil, w.classify(err, tenant.ID, in.ExternalEventID, "write booking")
	}

	if in.AmountPaidCents > 0 && in.AmountPaidCents != booking.TotalCents {
		w.log.Warn("Paid amount differs from catalog total",
			zap.String("order_id", booking.OrderID),
			zap.Int64("total_cents", booking.TotalCents),
			zap.Int64("amount_paid_cents", in.AmountPaidCents),
		)
	}

	w.log.Info("Booking written",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("order_id", booking.OrderID),
		zap.String("event_date", eventDate.Format(entity.DateLayout)),
		zap.String("status", string(booking.Status)),
		zap.Int64("total_cents", booking.TotalCents),
		zap.Int64("platform_fee_cents", booking.PlatformFeeCents),
	)
	return booking, nil
}

// TransitionBooking moves an existing booking to next and marks the event
// processed in the same transaction. changed is false when the booking was
// already in next or the transition is not allowed; the event still counts as
// processed so the provider stops redelivering it.
func (w *BookingWriter) TransitionBooking(ctx context.Context, tenant *entity.Tenant, lookup BookingLookup, next entity.BookingStatus, externalEventID string) (booking *entity.Booking, changed bool, err error) {
	err = w.tx.WithinTx(ctx, func(ctx context.Context, tx repository.TxRepository) error {
		var b *entity.Booking
		var err error
		switch {
		case lookup.CheckoutSessionID != "":
			b, err = tx.FindBookingByCheckoutSession(ctx, tenant.ID, lookup.CheckoutSessionID)
		case lookup.PaymentIntentID != "":
			b, err = tx.FindBookingByPaymentIntent(ctx, tenant.ID, lookup.PaymentIntentID)
		default:
			return fmt.Errorf("%w: no booking reference", ErrValidation)
		}
		if err != nil {
			return err
		}
		if b == nil {
			return fmt.Errorf("%w: booking", ErrNotFound)
		}

		if b.Status != next && b.Status.CanTransitionTo(next) {
			if err := tx.UpdateBookingStatus(ctx, tenant.ID, b.ID, next); err != nil {
				return err
			}
			w.log.Info("Booking status changed",
				zap.String("order_id", b.OrderID),
				zap.String("from", string(b.Status)),
				zap.String("to", string(next)),
			)
			b.Status = next
			changed = true
		} else if b.Status != next {
			w.log.Warn("Ignoring disallowed booking transition",
				zap.String("order_id", b.OrderID),
				zap.String("from", string(b.Status)),
				zap.String("to", string(next)),
			)
		}

		if err := tx.MarkEventProcessed(ctx, tenant.ID, externalEventID); err != nil {
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		return nil, false, w.classify(mapRowLockError(err), tenant.ID, externalEventID, "transition booking")
	}
	return booking, changed, nil
}

func (w *BookingWriter) classify(err error, tenantID uuid.UUID, externalEventID, op string) error {
	mapped := mapSlotError(err)
	if errors.Is(mapped, ErrDateUnavailable) {
		return mapped
	}
	mapped = asPersistence(mapped, op)
	if errors.Is(mapped, ErrPersistence) {
		w.log.Error("Booking transaction failed",
			zap.Error(err),
			zap.String("tenant_id", tenantID.String()),
			zap.String("external_event_id", externalEventID),
			zap.String("op", op),
		)
	}
	return mapped
}

// countAddons folds repeated ids into quantities, keeping first-seen order.
func countAddons(ids []uuid.UUID) (map[uuid.UUID]int, []uuid.UUID) {
	quantities := make(map[uuid.UUID]int, len(ids))
	order := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if quantities[id] == 0 {
			order = append(order, id)
		}
		quantities[id]++
	}
	return quantities, order
}
