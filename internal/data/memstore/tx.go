package memstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"wedding-booking/internal/data/entity"
	"wedding-booking/internal/data/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type transactor Store

// memTx buffers writes until commit. Nothing it writes is visible to other
// readers before then, so a rolled back transaction leaves no rows behind.
type memTx struct {
	store *Store

	customers     []*entity.Customer
	bookings      []*entity.Booking
	bookingAddons []*entity.BookingAddon
	statuses      map[uuid.UUID]entity.BookingStatus
	processed     []eventKey

	slots []slotKey
	rows  []uuid.UUID
}

func (t *transactor) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.TxRepository) error) error {
	s := (*Store)(t)
	if s.opts.TxTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.TxTimeout)
		defer cancel()
	}

	tx := &memTx{store: s, statuses: make(map[uuid.UUID]entity.BookingStatus)}
	defer tx.release()

	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return tx.commit()
}

func (tx *memTx) release() {
	s := tx.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range tx.slots {
		if s.slotLocks[k] == tx {
			delete(s.slotLocks, k)
		}
	}
	for _, id := range tx.rows {
		if s.rowLocks[id] == tx {
			delete(s.rowLocks, id)
		}
	}
}

func (tx *memTx) commit() error {
	s := tx.store
	s.mu.Lock()
	defer s.mu.Unlock()

	// Active slot uniqueness over committed rows plus this transaction's writes.
	for _, b := range tx.bookings {
		if !b.Status.Holds() {
			continue
		}
		if existing := s.activeBookingLocked(b.TenantID, b.EventDate); existing != nil {
			if next, ok := tx.statuses[existing.ID]; !ok || next.Holds() {
				return fmt.Errorf("commit: %w", repository.ErrSlotTaken)
			}
		}
	}

	now := time.Now()
	for _, c := range tx.customers {
		s.customers[customerKey{c.TenantID, c.Email}] = c
	}
	for id, status := range tx.statuses {
		if b, ok := s.bookings[id]; ok {
			b.Status = status
			b.UpdatedAt = now
		}
	}
	for _, b := range tx.bookings {
		s.bookings[b.ID] = b
	}
	for _, item := range tx.bookingAddons {
		s.bookingAddons[item.BookingID] = append(s.bookingAddons[item.BookingID], item)
	}
	for _, k := range tx.processed {
		if err := s.markProcessedLocked(k.tenantID, k.externalEventID); err != nil {
			s.log.Error("Processed flip lost on commit", zap.Error(err))
		}
	}
	return nil
}

func (tx *memTx) AcquireSlotLock(ctx context.Context, tenantID uuid.UUID, eventDate time.Time) (*entity.SlotLock, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := tx.store
	date := entity.SlotDate(eventDate)
	key := keyFor(tenantID, date)

	s.mu.Lock()
	defer s.mu.Unlock()

	if holder, ok := s.slotLocks[key]; ok && holder != tx {
		return nil, repository.ErrSlotLocked
	}
	if existing := s.activeBookingLocked(tenantID, date); existing != nil {
		if holder, ok := s.rowLocks[existing.ID]; ok && holder != tx {
			return nil, repository.ErrSlotLocked
		}
		return nil, repository.ErrSlotTaken
	}

	s.slotLocks[key] = tx
	tx.slots = append(tx.slots, key)
	return &entity.SlotLock{TenantID: tenantID, EventDate: date, AcquiredAt: time.Now()}, nil
}

func (tx *memTx) FindAddonsByIDs(_ context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*entity.Addon, error) {
	s := tx.store
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findAddonsLocked(tenantID, ids), nil
}

func (tx *memTx) UpsertCustomer(_ context.Context, customer *entity.Customer) error {
	s := tx.store
	customer.Email = strings.ToLower(customer.Email)

	for _, pending := range tx.customers {
		if pending.TenantID == customer.TenantID && pending.Email == customer.Email {
			pending.Name = customer.Name
			customer.ID = pending.ID
			customer.CreatedAt = pending.CreatedAt
			return nil
		}
	}

	s.mu.Lock()
	existing, ok := s.customers[customerKey{customer.TenantID, customer.Email}]
	s.mu.Unlock()

	c := *customer
	if ok {
		c.ID = existing.ID
		c.CreatedAt = existing.CreatedAt
		customer.ID = existing.ID
		customer.CreatedAt = existing.CreatedAt
	}
	c.UpdatedAt = time.Now()
	tx.customers = append(tx.customers, &c)
	return nil
}

func (tx *memTx) CreateBooking(_ context.Context, booking *entity.Booking) error {
	s := tx.store
	date := entity.SlotDate(booking.EventDate)

	if booking.Status.Holds() {
		for _, pending := range tx.bookings {
			if pending.TenantID == booking.TenantID && pending.EventDate.Equal(date) && pending.Status.Holds() {
				return repository.ErrSlotTaken
			}
		}
		s.mu.Lock()
		existing := s.activeBookingLocked(booking.TenantID, date)
		s.mu.Unlock()
		if existing != nil {
			if next, ok := tx.statuses[existing.ID]; !ok || next.Holds() {
				return repository.ErrSlotTaken
			}
		}
	}

	c := *booking
	c.EventDate = date
	c.Addons = nil
	tx.bookings = append(tx.bookings, &c)
	return nil
}

func (tx *memTx) CreateBookingAddons(_ context.Context, items []*entity.BookingAddon) error {
	for _, item := range items {
		c := *item
		tx.bookingAddons = append(tx.bookingAddons, &c)
	}
	return nil
}

func (tx *memTx) FindBookingByCheckoutSession(_ context.Context, tenantID uuid.UUID, sessionID string) (*entity.Booking, error) {
	return tx.findForUpdate(func(b *entity.Booking) bool {
		return b.TenantID == tenantID && b.CheckoutSessionID == sessionID
	})
}

func (tx *memTx) FindBookingByPaymentIntent(_ context.Context, tenantID uuid.UUID, paymentIntentID string) (*entity.Booking, error) {
	return tx.findForUpdate(func(b *entity.Booking) bool {
		return b.TenantID == tenantID && b.PaymentIntentID != nil && *b.PaymentIntentID == paymentIntentID
	})
}

// findForUpdate returns the newest committed match and row-locks it for this
// transaction. A row locked by another transaction reports ErrSlotLocked.
func (tx *memTx) findForUpdate(match func(*entity.Booking) bool) (*entity.Booking, error) {
	s := tx.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var found *entity.Booking
	for _, b := range s.bookings {
		if match(b) && (found == nil || b.CreatedAt.After(found.CreatedAt)) {
			found = b
		}
	}
	if found == nil {
		return nil, nil
	}
	if holder, ok := s.rowLocks[found.ID]; ok && holder != tx {
		return nil, repository.ErrSlotLocked
	}
	s.rowLocks[found.ID] = tx
	tx.rows = append(tx.rows, found.ID)

	c := *found
	if next, ok := tx.statuses[c.ID]; ok {
		c.Status = next
	}
	return &c, nil
}

func (tx *memTx) UpdateBookingStatus(_ context.Context, tenantID, bookingID uuid.UUID, status entity.BookingStatus) error {
	s := tx.store
	s.mu.Lock()
	b, ok := s.bookings[bookingID]
	s.mu.Unlock()
	if !ok || b.TenantID != tenantID {
		return fmt.Errorf("booking %s not found", bookingID)
	}
	tx.statuses[bookingID] = status
	return nil
}

func (tx *memTx) MarkEventProcessed(_ context.Context, tenantID uuid.UUID, externalEventID string) error {
	s := tx.store
	s.mu.Lock()
	_, ok := s.events[eventKey{tenantID, externalEventID}]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("webhook event %s not found", externalEventID)
	}
	tx.processed = append(tx.processed, eventKey{tenantID, externalEventID})
	return nil
}
