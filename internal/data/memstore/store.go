// Package memstore keeps every repository in process memory. It backs the
// memory storage mode and the concurrency tests, and mirrors the Postgres
// semantics the booking flow depends on: slot locks fail immediately when held,
// writes become visible only on commit, and the active-slot uniqueness check
// runs again at commit time.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"wedding-booking/internal/data/entity"
	"wedding-booking/internal/data/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type slotKey struct {
	tenantID uuid.UUID
	date     string
}

type eventKey struct {
	tenantID        uuid.UUID
	externalEventID string
}

type customerKey struct {
	tenantID uuid.UUID
	email    string
}

type Store struct {
	mu sync.Mutex

	tenants       map[uuid.UUID]*entity.Tenant
	addons        map[uuid.UUID]*entity.Addon
	customers     map[customerKey]*entity.Customer
	bookings      map[uuid.UUID]*entity.Booking
	bookingAddons map[uuid.UUID][]*entity.BookingAddon
	events        map[eventKey]*entity.WebhookEvent
	admins        map[string]*entity.Admin

	slotLocks map[slotKey]*memTx
	rowLocks  map[uuid.UUID]*memTx

	opts repository.TxOptions
	log  *zap.Logger
}

func New(opts repository.TxOptions, log *zap.Logger) *Store {
	return &Store{
		tenants:       make(map[uuid.UUID]*entity.Tenant),
		addons:        make(map[uuid.UUID]*entity.Addon),
		customers:     make(map[customerKey]*entity.Customer),
		bookings:      make(map[uuid.UUID]*entity.Booking),
		bookingAddons: make(map[uuid.UUID][]*entity.BookingAddon),
		events:        make(map[eventKey]*entity.WebhookEvent),
		admins:        make(map[string]*entity.Admin),
		slotLocks:     make(map[slotKey]*memTx),
		rowLocks:      make(map[uuid.UUID]*memTx),
		opts:          opts,
		log:           log.With(zap.String("repository", "memory")),
	}
}

// Repository exposes the store through the same aggregate the Postgres layer returns.
func (s *Store) Repository() *repository.Repository {
	return &repository.Repository{
		Tenant:       (*tenantRepo)(s),
		Addon:        (*addonRepo)(s),
		Booking:      (*bookingRepo)(s),
		WebhookEvent: (*webhookEventRepo)(s),
		Admin:        (*adminRepo)(s),
		Tx:           (*transactor)(s),
	}
}

// Seed helpers. They replace any existing row with the same key.

func (s *Store) AddTenant(tenant *entity.Tenant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *tenant
	s.tenants[c.ID] = &c
}

func (s *Store) AddAddon(addon *entity.Addon) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *addon
	s.addons[c.ID] = &c
}

func (s *Store) AddAdmin(admin *entity.Admin) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *admin
	s.admins[strings.ToLower(c.Email)] = &c
}

// AddBooking stores a committed booking directly, bypassing the slot checks.
func (s *Store) AddBooking(booking *entity.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *booking
	c.EventDate = entity.SlotDate(c.EventDate)
	s.bookings[c.ID] = &c
}

func (s *Store) CustomerCount(tenantID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k := range s.customers {
		if k.tenantID == tenantID {
			n++
		}
	}
	return n
}

func (s *Store) BookingAddonCount(tenantID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, items := range s.bookingAddons {
		for _, item := range items {
			if item.TenantID == tenantID {
				n++
			}
		}
	}
	return n
}

// activeBookingLocked returns the committed booking holding the slot, if any.
// Caller holds s.mu.
func (s *Store) activeBookingLocked(tenantID uuid.UUID, date time.Time) *entity.Booking {
	for _, b := range s.bookings {
		if b.TenantID == tenantID && b.EventDate.Equal(date) && b.Status.Holds() {
			return b
		}
	}
	return nil
}

func keyFor(tenantID uuid.UUID, date time.Time) slotKey {
	return slotKey{tenantID: tenantID, date: entity.SlotDate(date).Format(entity.DateLayout)}
}

// ---- non-transactional repositories ----

type tenantRepo Store

func (r *tenantRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Tenant, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tenants[id]
	if !ok {
		return nil, nil
	}
	c := *t
	return &c, nil
}

func (r *tenantRepo) FindBySlug(_ context.Context, slug string) (*entity.Tenant, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tenants {
		if t.Slug == slug {
			c := *t
			return &c, nil
		}
	}
	return nil, nil
}

func (r *tenantRepo) UpdateCommissionRate(_ context.Context, id uuid.UUID, rate decimal.Decimal) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tenants[id]
	if !ok {
		return fmt.Errorf("tenant %s not found", id)
	}
	t.CommissionRate = rate
	t.UpdatedAt = time.Now()
	return nil
}

func (r *tenantRepo) Create(_ context.Context, tenant *entity.Tenant) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tenants {
		if t.Slug == tenant.Slug {
			return fmt.Errorf("tenant slug %s already exists", tenant.Slug)
		}
	}
	c := *tenant
	s.tenants[c.ID] = &c
	return nil
}

type addonRepo Store

func (r *addonRepo) Create(_ context.Context, addon *entity.Addon) error {
	(*Store)(r).AddAddon(addon)
	return nil
}

func (r *addonRepo) FindByIDs(_ context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*entity.Addon, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findAddonsLocked(tenantID, ids), nil
}

func (s *Store) findAddonsLocked(tenantID uuid.UUID, ids []uuid.UUID) []*entity.Addon {
	var out []*entity.Addon
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if a, ok := s.addons[id]; ok && a.TenantID == tenantID && a.IsActive {
			c := *a
			out = append(out, &c)
		}
	}
	return out
}

type bookingRepo Store

func (r *bookingRepo) FindByID(_ context.Context, tenantID, id uuid.UUID) (*entity.Booking, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok || b.TenantID != tenantID {
		return nil, nil
	}
	c := *b
	return &c, nil
}

func (r *bookingRepo) FindAddons(_ context.Context, tenantID, bookingID uuid.UUID) ([]*entity.BookingAddon, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entity.BookingAddon
	for _, item := range s.bookingAddons[bookingID] {
		if item.TenantID == tenantID {
			c := *item
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *bookingRepo) matching(tenantID uuid.UUID, filter repository.BookingFilter) []*entity.Booking {
	s := (*Store)(r)
	var out []*entity.Booking
	for _, b := range s.bookings {
		if b.TenantID != tenantID {
			continue
		}
		if filter.Status != nil && b.Status != *filter.Status {
			continue
		}
		if filter.EventDate != nil && !b.EventDate.Equal(entity.SlotDate(*filter.EventDate)) {
			continue
		}
		c := *b
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *bookingRepo) List(_ context.Context, tenantID uuid.UUID, filter repository.BookingFilter, limit, offset int) ([]*entity.Booking, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	return page(r.matching(tenantID, filter), limit, offset), nil
}

func (r *bookingRepo) Count(_ context.Context, tenantID uuid.UUID, filter repository.BookingFilter) (int64, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(r.matching(tenantID, filter))), nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}

type webhookEventRepo Store

func (r *webhookEventRepo) Record(_ context.Context, event *entity.WebhookEvent) (*entity.WebhookEvent, bool, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	key := eventKey{event.TenantID, event.ExternalEventID}
	if existing, ok := s.events[key]; ok {
		existing.Attempts++
		c := *existing
		return &c, false, nil
	}

	stored := *event
	stored.Status = entity.WebhookEventStatusPending
	stored.LastError = nil
	stored.Attempts = 1
	stored.UpdatedAt = stored.CreatedAt
	s.events[key] = &stored
	c := stored
	return &c, true, nil
}

func (r *webhookEventRepo) FindByExternalID(_ context.Context, tenantID uuid.UUID, externalEventID string) (*entity.WebhookEvent, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[eventKey{tenantID, externalEventID}]
	if !ok {
		return nil, nil
	}
	c := *e
	return &c, nil
}

func (r *webhookEventRepo) ClaimRetry(_ context.Context, tenantID uuid.UUID, externalEventID string, staleAfter time.Duration) (bool, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[eventKey{tenantID, externalEventID}]
	if !ok {
		return false, nil
	}
	retryable := e.Status == entity.WebhookEventStatusFailed && e.LastError != nil && e.LastError.Retryable()
	stale := e.Status == entity.WebhookEventStatusPending && e.UpdatedAt.Before(time.Now().Add(-staleAfter))
	if !retryable && !stale {
		return false, nil
	}
	e.Status = entity.WebhookEventStatusPending
	e.LastError = nil
	e.UpdatedAt = time.Now()
	return true, nil
}

func (r *webhookEventRepo) MarkProcessed(_ context.Context, tenantID uuid.UUID, externalEventID string) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.markProcessedLocked(tenantID, externalEventID)
}

func (s *Store) markProcessedLocked(tenantID uuid.UUID, externalEventID string) error {
	e, ok := s.events[eventKey{tenantID, externalEventID}]
	if !ok {
		return fmt.Errorf("webhook event %s not found", externalEventID)
	}
	now := time.Now()
	e.Status = entity.WebhookEventStatusProcessed
	e.LastError = nil
	e.ProcessedAt = &now
	e.UpdatedAt = now
	return nil
}

func (r *webhookEventRepo) MarkFailed(_ context.Context, tenantID uuid.UUID, externalEventID string, category entity.ErrorCategory) error {
	if !category.Valid() {
		return fmt.Errorf("refusing to persist non-abstract error category")
	}
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[eventKey{tenantID, externalEventID}]
	if !ok {
		return fmt.Errorf("webhook event %s not found", externalEventID)
	}
	e.Status = entity.WebhookEventStatusFailed
	e.LastError = &category
	e.UpdatedAt = time.Now()
	return nil
}

func (r *webhookEventRepo) List(_ context.Context, tenantID uuid.UUID, limit, offset int) ([]*entity.WebhookEvent, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	return page(r.forTenant(tenantID), limit, offset), nil
}

func (r *webhookEventRepo) Count(_ context.Context, tenantID uuid.UUID) (int64, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(r.forTenant(tenantID))), nil
}

func (r *webhookEventRepo) forTenant(tenantID uuid.UUID) []*entity.WebhookEvent {
	var out []*entity.WebhookEvent
	for k, e := range r.events {
		if k.tenantID == tenantID {
			c := *e
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

type adminRepo Store

func (r *adminRepo) Create(_ context.Context, admin *entity.Admin) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(admin.Email)
	if existing, ok := s.admins[key]; ok {
		admin.ID = existing.ID
	}
	c := *admin
	c.Email = key
	s.admins[key] = &c
	return nil
}

func (r *adminRepo) FindByEmail(_ context.Context, email string) (*entity.Admin, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.admins[strings.ToLower(email)]
	if !ok {
		return nil, nil
	}
	c := *a
	return &c, nil
}
