package repository

import (
	"context"
	"errors"
	"time"

	"wedding-booking/internal/data/entity"
	"wedding-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	// ErrSlotLocked means another transaction holds the (tenant, date) slot right now.
	ErrSlotLocked = errors.New("slot lock not available")
	// ErrSlotTaken means an active booking already owns the (tenant, date) slot.
	ErrSlotTaken = errors.New("slot already booked")
)

type TenantRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Tenant, error)
	FindBySlug(ctx context.Context, slug string) (*entity.Tenant, error)
	UpdateCommissionRate(ctx context.Context, id uuid.UUID, rate decimal.Decimal) error
	Create(ctx context.Context, tenant *entity.Tenant) error
}

type AddonRepository interface {
	// FindByIDs returns active add-ons only.
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*entity.Addon, error)
	Create(ctx context.Context, addon *entity.Addon) error
}

type BookingRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*entity.Booking, error)
	FindAddons(ctx context.Context, tenantID, bookingID uuid.UUID) ([]*entity.BookingAddon, error)
	List(ctx context.Context, tenantID uuid.UUID, filter BookingFilter, limit, offset int) ([]*entity.Booking, error)
	Count(ctx context.Context, tenantID uuid.UUID, filter BookingFilter) (int64, error)
}

type BookingFilter struct {
	Status    *entity.BookingStatus
	EventDate *time.Time
}

type WebhookEventRepository interface {
	// Record inserts a PENDING row, or bumps attempts on the existing one.
	// inserted is false when (tenant_id, external_event_id) was already known.
	Record(ctx context.Context, event *entity.WebhookEvent) (stored *entity.WebhookEvent, inserted bool, err error)
	FindByExternalID(ctx context.Context, tenantID uuid.UUID, externalEventID string) (*entity.WebhookEvent, error)
	// ClaimRetry flips a retryable FAILED row, or a PENDING row untouched for
	// longer than staleAfter, back to a fresh PENDING; false if nothing was claimed.
	ClaimRetry(ctx context.Context, tenantID uuid.UUID, externalEventID string, staleAfter time.Duration) (bool, error)
	MarkProcessed(ctx context.Context, tenantID uuid.UUID, externalEventID string) error
	MarkFailed(ctx context.Context, tenantID uuid.UUID, externalEventID string, category entity.ErrorCategory) error
	List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*entity.WebhookEvent, error)
	Count(ctx context.Context, tenantID uuid.UUID) (int64, error)
}

type AdminRepository interface {
	FindByEmail(ctx context.Context, email string) (*entity.Admin, error)
	Create(ctx context.Context, admin *entity.Admin) error
}

// TxRepository is only valid inside Transactor.WithinTx. Everything written
// through it commits or rolls back together, and slot locks live until then.
type TxRepository interface {
	AcquireSlotLock(ctx context.Context, tenantID uuid.UUID, eventDate time.Time) (*entity.SlotLock, error)
	FindAddonsByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*entity.Addon, error)
	UpsertCustomer(ctx context.Context, customer *entity.Customer) error
	CreateBooking(ctx context.Context, booking *entity.Booking) error
	CreateBookingAddons(ctx context.Context, items []*entity.BookingAddon) error
	FindBookingByCheckoutSession(ctx context.Context, tenantID uuid.UUID, sessionID string) (*entity.Booking, error)
	FindBookingByPaymentIntent(ctx context.Context, tenantID uuid.UUID, paymentIntentID string) (*entity.Booking, error)
	UpdateBookingStatus(ctx context.Context, tenantID, bookingID uuid.UUID, status entity.BookingStatus) error
	MarkEventProcessed(ctx context.Context, tenantID uuid.UUID, externalEventID string) error
}

type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error
}

type Repository struct {
	Tenant       TenantRepository
	Addon        AddonRepository
	Booking      BookingRepository
	WebhookEvent WebhookEventRepository
	Admin        AdminRepository
	Tx           Transactor
}

type TxOptions struct {
	LockTimeout time.Duration
	TxTimeout   time.Duration
}

func NewRepository(db database.PgxIface, opts TxOptions, log *zap.Logger) *Repository {
	return &Repository{
		Tenant:       NewTenantRepository(db, log),
		Addon:        NewAddonRepository(db, log),
		Booking:      NewBookingRepository(db, log),
		WebhookEvent: NewWebhookEventRepository(db, log),
		Admin:        NewAdminRepository(db, log),
		Tx:           NewTransactor(db, opts, log),
	}
}
