package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"wedding-booking/internal/data/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, key, value []byte) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

func testBooking() *entity.Booking {
	return &entity.Booking{
		BaseNoDelete: entity.BaseNoDelete{ID: uuid.New()},
		TenantID:     uuid.New(),
		OrderID:      "WED-20260615-ABCDEF12",
		EventDate:    time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC),
		TotalCents:   10000,
		Commission:   entity.Commission{PlatformFeeCents: 1250, VendorPayoutCents: 8750},
		Status:       entity.BookingStatusPaid,
	}
}

func TestBookingNotifier_Notify(t *testing.T) {
	pub := new(MockPublisher)
	b := testBooking()

	var sent BookingEvent
	pub.On("Publish", mock.Anything, "booking-events", []byte(b.TenantID.String()), mock.Anything).
		Run(func(args mock.Arguments) {
			require.NoError(t, json.Unmarshal(args.Get(3).([]byte), &sent))
		}).
		Return(nil)

	NewBookingNotifier(pub, "booking-events", zap.NewNop()).Notify(context.Background(), BookingEventCreated, "evt_1", b)

	pub.AssertExpectations(t)
	assert.Equal(t, BookingEventCreated, sent.Type)
	assert.Equal(t, "2026-06-15", sent.EventDate)
	assert.Equal(t, int64(1250), sent.PlatformFeeCents)
	assert.Equal(t, "evt_1", sent.SourceEventID)
}

func TestBookingNotifier_SurvivesCanceledRequest(t *testing.T) {
	pub := new(MockPublisher)
	pub.On("Publish", mock.MatchedBy(func(ctx context.Context) bool {
		return ctx.Err() == nil
	}), mock.Anything, mock.Anything, mock.Anything).Return(nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	NewBookingNotifier(pub, "booking-events", zap.NewNop()).Notify(ctx, BookingEventPaid, "evt_2", testBooking())
	pub.AssertExpectations(t)
}

func TestBookingNotifier_PublishErrorIsSwallowed(t *testing.T) {
	pub := new(MockPublisher)
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down"))

	assert.NotPanics(t, func() {
		NewBookingNotifier(pub, "booking-events", zap.NewNop()).Notify(context.Background(), BookingEventPaid, "evt_3", testBooking())
	})
	pub.AssertNumberOfCalls(t, "Publish", 1)

	var nilNotifier *BookingNotifier
	assert.NotPanics(t, func() { nilNotifier.Notify(context.Background(), BookingEventPaid, "evt_4", testBooking()) })
}
