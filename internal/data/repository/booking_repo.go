package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"wedding-booking/internal/data/entity"
	"wedding-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type bookingRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewBookingRepository(db database.PgxIface, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

const bookingColumns = `
	id, tenant_id, order_id, event_date, customer_id, total_cents, amount_paid_cents,
	commission_rate::text, platform_fee_cents, vendor_payout_cents, status,
	checkout_session_id, payment_intent_id, external_event_id, created_at, updated_at`

func scanBooking(row pgx.Row) (*entity.Booking, error) {
	var booking entity.Booking
	var rate string
	err := row.Scan(
		&booking.ID,
		&booking.TenantID,
		&booking.OrderID,
		&booking.EventDate,
		&booking.CustomerID,
		&booking.TotalCents,
		&booking.AmountPaidCents,
		&rate,
		&booking.PlatformFeeCents,
		&booking.VendorPayoutCents,
		&booking.Status,
		&booking.CheckoutSessionID,
		&booking.PaymentIntentID,
		&booking.ExternalEventID,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if booking.CommissionRate, err = decimal.NewFromString(rate); err != nil {
		return nil, fmt.Errorf("parse commission rate %q: %w", rate, err)
	}
	return &booking, nil
}

func (r *bookingRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE tenant_id = $1 AND id = $2`

	booking, err := scanBooking(r.db.QueryRow(ctx, query, tenantID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by ID",
			zap.Error(err),
			zap.String("tenant_id", tenantID.String()),
			zap.String("booking_id", id.String()),
		)
		return nil, fmt.Errorf("find booking %s: %w", id, err)
	}
	return booking, nil
}

func (r *bookingRepository) FindAddons(ctx context.Context, tenantID, bookingID uuid.UUID) ([]*entity.BookingAddon, error) {
	query := `
		SELECT id, tenant_id, booking_id, addon_id, name, quantity, unit_price_cents, created_at
		FROM booking_addons
		WHERE tenant_id = $1 AND booking_id = $2
		ORDER BY created_at, name
	`

	rows, err := r.db.Query(ctx, query, tenantID, bookingID)
	if err != nil {
		r.log.Error("Failed to find booking addons",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return nil, fmt.Errorf("find addons of booking %s: %w", bookingID, err)
	}
	defer rows.Close()

	var items []*entity.BookingAddon
	for rows.Next() {
		var item entity.BookingAddon
		if err := rows.Scan(
			&item.ID,
			&item.TenantID,
			&item.BookingID,
			&item.AddonID,
			&item.Name,
			&item.Quantity,
			&item.UnitPriceCents,
			&item.CreatedAt,
		); err != nil {
			r.log.Error("Failed to scan booking addon row", zap.Error(err))
			return nil, fmt.Errorf("scan booking addon row: %w", err)
		}
		items = append(items, &item)
	}

	return items, rows.Err()
}

// filterClause appends the optional filter predicates after tenant_id = $1.
func filterClause(filter BookingFilter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)+1))
	}
	if filter.EventDate != nil {
		args = append(args, *filter.EventDate)
		clauses = append(clauses, fmt.Sprintf("event_date = $%d", len(args)+1))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " AND " + strings.Join(clauses, " AND "), args
}

func (r *bookingRepository) List(ctx context.Context, tenantID uuid.UUID, filter BookingFilter, limit, offset int) ([]*entity.Booking, error) {
	where, filterArgs := filterClause(filter)
	args := append([]any{tenantID}, filterArgs...)
	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE tenant_id = $1%s ORDER BY event_date DESC, created_at DESC LIMIT $%d OFFSET $%d`,
		bookingColumns, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to list bookings",
			zap.Error(err),
			zap.String("tenant_id", tenantID.String()),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("list bookings of tenant %s: %w", tenantID, err)
	}
	defer rows.Close()

	var bookings []*entity.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			r.log.Error("Failed to scan booking row", zap.Error(err))
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		bookings = append(bookings, booking)
	}

	return bookings, rows.Err()
}

func (r *bookingRepository) Count(ctx context.Context, tenantID uuid.UUID, filter BookingFilter) (int64, error) {
	where, filterArgs := filterClause(filter)
	query := `SELECT COUNT(*) FROM bookings WHERE tenant_id = $1` + where

	var count int64
	if err := r.db.QueryRow(ctx, query, append([]any{tenantID}, filterArgs...)...).Scan(&count); err != nil {
		r.log.Error("Failed to count bookings", zap.Error(err), zap.String("tenant_id", tenantID.String()))
		return 0, fmt.Errorf("count bookings of tenant %s: %w", tenantID, err)
	}
	return count, nil
}
