package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wedding-booking/internal/data/entity"
	"wedding-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// activeSlotConstraint is the partial unique index over (tenant_id, event_date)
// for PENDING and PAID bookings.
const activeSlotConstraint = "bookings_active_slot_key"

type transactor struct {
	db   database.PgxIface
	opts TxOptions
	log  *zap.Logger
}

func NewTransactor(db database.PgxIface, opts TxOptions, log *zap.Logger) Transactor {
	return &transactor{
		db:   db,
		opts: opts,
		log:  log.With(zap.String("repository", "tx")),
	}
}

func (t *transactor) WithinTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) (err error) {
	if t.opts.TxTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.opts.TxTimeout)
		defer cancel()
	}

	pgTx, err := t.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := pgTx.Rollback(context.WithoutCancel(ctx)); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				t.log.Warn("Rollback failed", zap.Error(rbErr))
			}
		}
	}()

	// SET LOCAL takes no bind parameters; the values are integers we own.
	if t.opts.LockTimeout > 0 {
		if _, err = pgTx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = %d", t.opts.LockTimeout.Milliseconds())); err != nil {
			return fmt.Errorf("set lock_timeout: %w", err)
		}
	}
	if t.opts.TxTimeout > 0 {
		if _, err = pgTx.Exec(ctx, fmt.Sprintf("SET LOCAL statement_timeout = %d", t.opts.TxTimeout.Milliseconds())); err != nil {
			return fmt.Errorf("set statement_timeout: %w", err)
		}
	}

	if err = fn(ctx, &txRepository{tx: pgTx}); err != nil {
		return err
	}

	if err = pgTx.Commit(ctx); err != nil {
		if database.IsUniqueViolation(err, activeSlotConstraint) {
			return fmt.Errorf("commit: %w", ErrSlotTaken)
		}
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type txRepository struct {
	tx pgx.Tx
}

// AcquireSlotLock takes a transaction scoped advisory lock on the slot key, which
// covers dates with no booking row yet, then row-locks any active booking with
// NOWAIT. Neither step queues behind another holder.
func (r *txRepository) AcquireSlotLock(ctx context.Context, tenantID uuid.UUID, eventDate time.Time) (*entity.SlotLock, error) {
	date := entity.SlotDate(eventDate)
	key := slotLockKey(tenantID, date)

	var acquired bool
	if err := r.tx.QueryRow(ctx, `SELECT pg_try_advisory_xact_lock(hashtextextended($1, 0))`, key).Scan(&acquired); err != nil {
		if database.IsLockNotAvailable(err) {
			return nil, ErrSlotLocked
		}
		return nil, fmt.Errorf("advisory lock %s: %w", key, err)
	}
	if !acquired {
		return nil, ErrSlotLocked
	}

	query := `
		SELECT id FROM bookings
		WHERE tenant_id = $1 AND event_date = $2 AND status IN ($3, $4)
		FOR UPDATE NOWAIT
	`

	var existing uuid.UUID
	err := r.tx.QueryRow(ctx, query, tenantID, date, entity.BookingStatusPending, entity.BookingStatusPaid).Scan(&existing)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return &entity.SlotLock{TenantID: tenantID, EventDate: date, AcquiredAt: time.Now()}, nil
	case err == nil:
		return nil, ErrSlotTaken
	case database.IsLockNotAvailable(err):
		return nil, ErrSlotLocked
	default:
		return nil, fmt.Errorf("lock slot row %s: %w", key, err)
	}
}

func slotLockKey(tenantID uuid.UUID, date time.Time) string {
	return "slot:" + tenantID.String() + ":" + date.Format(entity.DateLayout)
}

func (r *txRepository) FindAddonsByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*entity.Addon, error) {
	return findAddonsByIDs(ctx, r.tx, tenantID, ids)
}

func (r *txRepository) UpsertCustomer(ctx context.Context, customer *entity.Customer) error {
	query := `
		INSERT INTO customers (id, tenant_id, email, name, created_at, updated_at)
		VALUES ($1, $2, lower($3), $4, $5, $5)
		ON CONFLICT (tenant_id, email)
		DO UPDATE SET name = EXCLUDED.name, updated_at = NOW()
		RETURNING id, created_at
	`

	err := r.tx.QueryRow(ctx, query,
		customer.ID,
		customer.TenantID,
		customer.Email,
		customer.Name,
		customer.CreatedAt,
	).Scan(&customer.ID, &customer.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert customer for tenant %s: %w", customer.TenantID, err)
	}
	return nil
}

func (r *txRepository) CreateBooking(ctx context.Context, booking *entity.Booking) error {
	query := `
		INSERT INTO bookings (id, tenant_id, order_id, event_date, customer_id, total_cents, amount_paid_cents,
		                      commission_rate, platform_fee_cents, vendor_payout_cents, status,
		                      checkout_session_id, payment_intent_id, external_event_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::numeric, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := r.tx.Exec(ctx, query,
		booking.ID,
		booking.TenantID,
		booking.OrderID,
		entity.SlotDate(booking.EventDate),
		booking.CustomerID,
		booking.TotalCents,
		booking.AmountPaidCents,
		booking.CommissionRate.String(),
		booking.PlatformFeeCents,
		booking.VendorPayoutCents,
		booking.Status,
		booking.CheckoutSessionID,
		booking.PaymentIntentID,
		booking.ExternalEventID,
		booking.CreatedAt,
		booking.UpdatedAt,
	)
	if database.IsUniqueViolation(err, activeSlotConstraint) {
		return ErrSlotTaken
	}
	if database.IsLockNotAvailable(err) {
		return ErrSlotLocked
	}
	if err != nil {
		return fmt.Errorf("create booking %s: %w", booking.OrderID, err)
	}
	return nil
}

func (r *txRepository) CreateBookingAddons(ctx context.Context, items []*entity.BookingAddon) error {
	if len(items) == 0 {
		return nil
	}

	rows := make([][]any, len(items))
	for i, item := range items {
		rows[i] = []any{
			item.ID,
			item.TenantID,
			item.BookingID,
			item.AddonID,
			item.Name,
			item.Quantity,
			item.UnitPriceCents,
			item.CreatedAt,
		}
	}

	_, err := r.tx.CopyFrom(ctx,
		pgx.Identifier{"booking_addons"},
		[]string{"id", "tenant_id", "booking_id", "addon_id", "name", "quantity", "unit_price_cents", "created_at"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("create booking addons: %w", err)
	}
	return nil
}

func (r *txRepository) FindBookingByCheckoutSession(ctx context.Context, tenantID uuid.UUID, sessionID string) (*entity.Booking, error) {
	return r.findBookingForUpdate(ctx, "checkout_session_id", tenantID, sessionID)
}

func (r *txRepository) FindBookingByPaymentIntent(ctx context.Context, tenantID uuid.UUID, paymentIntentID string) (*entity.Booking, error) {
	return r.findBookingForUpdate(ctx, "payment_intent_id", tenantID, paymentIntentID)
}

// column is one of two constants above, never caller input.
func (r *txRepository) findBookingForUpdate(ctx context.Context, column string, tenantID uuid.UUID, value string) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE tenant_id = $1 AND ` + column + ` = $2
		ORDER BY created_at DESC LIMIT 1 FOR UPDATE`

	booking, err := scanBooking(r.tx.QueryRow(ctx, query, tenantID, value))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if database.IsLockNotAvailable(err) {
		return nil, ErrSlotLocked
	}
	if err != nil {
		return nil, fmt.Errorf("find booking by %s: %w", column, err)
	}
	return booking, nil
}

func (r *txRepository) UpdateBookingStatus(ctx context.Context, tenantID, bookingID uuid.UUID, status entity.BookingStatus) error {
	query := `UPDATE bookings SET status = $3, updated_at = NOW() WHERE tenant_id = $1 AND id = $2`

	result, err := r.tx.Exec(ctx, query, tenantID, bookingID, status)
	if database.IsUniqueViolation(err, activeSlotConstraint) {
		return ErrSlotTaken
	}
	if err != nil {
		return fmt.Errorf("update booking %s status to %s: %w", bookingID, status, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("booking %s not found", bookingID)
	}
	return nil
}

func (r *txRepository) MarkEventProcessed(ctx context.Context, tenantID uuid.UUID, externalEventID string) error {
	return markEventProcessed(ctx, r.tx, tenantID, externalEventID)
}
