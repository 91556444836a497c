package usecase

import (
	"context"
	"fmt"
	"time"

	"wedding-booking/internal/data/entity"
	"wedding-booking/internal/data/repository"
	"wedding-booking/internal/dto/request"
	"wedding-booking/internal/dto/response"
	"wedding-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BookingService is the read side used by vendor and platform admins.
type BookingService interface {
	ListBookings(ctx context.Context, principal entity.Principal, tenantID uuid.UUID, req *request.BookingListRequest) (*response.PaginatedResponse[response.BookingResponse], error)
	GetBooking(ctx context.Context, principal entity.Principal, tenantID, bookingID uuid.UUID) (*response.BookingDetailResponse, error)
	ListWebhookEvents(ctx context.Context, principal entity.Principal, tenantID uuid.UUID, req *request.PaginatedRequest) (*response.PaginatedResponse[response.WebhookEventResponse], error)
}

type bookingService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewBookingService(repo *repository.Repository, log *zap.Logger) BookingService {
	return &bookingService{
		repo: repo,
		log:  log.With(zap.String("service", "booking")),
	}
}

func (s *bookingService) ListBookings(ctx context.Context, principal entity.Principal, tenantID uuid.UUID, req *request.BookingListRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	if err := AuthorizeTenant(principal, tenantID); err != nil {
		return nil, err
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	var filter repository.BookingFilter
	if req.Status != "" {
		status := entity.BookingStatus(req.Status)
		filter.Status = &status
	}
	if req.EventDate != "" {
		date, err := time.Parse(entity.DateLayout, req.EventDate)
		if err != nil {
			return nil, fmt.Errorf("%w: event_date", ErrValidation)
		}
		filter.EventDate = &date
	}

	bookings, err := s.repo.Booking.List(ctx, tenantID, filter, req.Limit(), req.Offset())
	if err != nil {
		s.log.Error("Failed to list bookings", zap.Error(err), zap.String("tenant_id", tenantID.String()))
		return nil, fmt.Errorf("%w: list bookings", ErrPersistence)
	}
	total, err := s.repo.Booking.Count(ctx, tenantID, filter)
	if err != nil {
		s.log.Error("Failed to count bookings", zap.Error(err), zap.String("tenant_id", tenantID.String()))
		return nil, fmt.Errorf("%w: count bookings", ErrPersistence)
	}

	items := make([]response.BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		items = append(items, response.BookingToResponse(b))
	}
	return response.NewPaginatedResponse(items, req.Page, req.Limit(), total), nil
}

func (s *bookingService) GetBooking(ctx context.Context, principal entity.Principal, tenantID, bookingID uuid.UUID) (*response.BookingDetailResponse, error) {
	if err := AuthorizeTenant(principal, tenantID); err != nil {
		return nil, err
	}

	booking, err := s.repo.Booking.FindByID(ctx, tenantID, bookingID)
	if err != nil {
		s.log.Error("Failed to get booking", zap.Error(err), zap.String("booking_id", bookingID.String()))
		return nil, fmt.Errorf("%w: get booking", ErrPersistence)
	}
	if booking == nil {
		return nil, fmt.Errorf("%w: booking %s", ErrNotFound, bookingID)
	}

	addons, err := s.repo.Booking.FindAddons(ctx, tenantID, bookingID)
	if err != nil {
		s.log.Error("Failed to get booking addons", zap.Error(err), zap.String("booking_id", bookingID.String()))
		return nil, fmt.Errorf("%w: get booking addons", ErrPersistence)
	}
	booking.Addons = addons

	resp := response.BookingToDetailResponse(booking)
	return &resp, nil
}

func (s *bookingService) ListWebhookEvents(ctx context.Context, principal entity.Principal, tenantID uuid.UUID, req *request.PaginatedRequest) (*response.PaginatedResponse[response.WebhookEventResponse], error) {
	if err := AuthorizeTenant(principal, tenantID); err != nil {
		return nil, err
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	events, err := s.repo.WebhookEvent.List(ctx, tenantID, req.Limit(), req.Offset())
	if err != nil {
		s.log.Error("Failed to list webhook events", zap.Error(err), zap.String("tenant_id", tenantID.String()))
		return nil, fmt.Errorf("%w: list webhook events", ErrPersistence)
	}
	total, err := s.repo.WebhookEvent.Count(ctx, tenantID)
	if err != nil {
		s.log.Error("Failed to count webhook events", zap.Error(err), zap.String("tenant_id", tenantID.String()))
		return nil, fmt.Errorf("%w: count webhook events", ErrPersistence)
	}

	items := make([]response.WebhookEventResponse, 0, len(events))
	for _, e := range events {
		items = append(items, response.WebhookEventToResponse(e))
	}
	return response.NewPaginatedResponse(items, req.Page, req.Limit(), total), nil
}
