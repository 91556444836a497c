package usecase

import (
	"context"
	"fmt"

	"wedding-booking/internal/data/entity"
	"wedding-booking/internal/data/repository"
	"wedding-booking/internal/dto/request"
	"wedding-booking/internal/dto/response"
	"wedding-booking/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type TenantService interface {
	GetTenant(ctx context.Context, principal entity.Principal, tenantID uuid.UUID) (*response.TenantResponse, error)
	UpdateCommission(ctx context.Context, principal entity.Principal, tenantID uuid.UUID, req *request.UpdateCommissionRequest) (*response.TenantResponse, error)
}

type tenantService struct {
	tenants    repository.TenantRepository
	resolver   *TenantResolver
	commission *CommissionCalculator
	log        *zap.Logger
}

func NewTenantService(tenants repository.TenantRepository, resolver *TenantResolver, commission *CommissionCalculator, log *zap.Logger) TenantService {
	return &tenantService{
		tenants:    tenants,
		resolver:   resolver,
		commission: commission,
		log:        log.With(zap.String("service", "tenant")),
	}
}

func (s *tenantService) GetTenant(ctx context.Context, principal entity.Principal, tenantID uuid.UUID) (*response.TenantResponse, error) {
	if err := AuthorizeTenant(principal, tenantID); err != nil {
		return nil, err
	}
	tenant, err := s.find(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	resp := response.TenantToResponse(tenant)
	return &resp, nil
}

// UpdateCommission clamps the requested rate into the configured range.
func (s *tenantService) UpdateCommission(ctx context.Context, principal entity.Principal, tenantID uuid.UUID, req *request.UpdateCommissionRequest) (*response.TenantResponse, error) {
	if err := RequirePlatformAdmin(principal); err != nil {
		return nil, err
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}
	requested, err := decimal.NewFromString(req.Rate)
	if err != nil {
		return nil, fmt.Errorf("%w: rate", ErrValidation)
	}

	tenant, err := s.find(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	rate := s.commission.Clamp(requested)
	if !rate.Equal(requested) {
		s.log.Info("Commission rate clamped",
			zap.String("tenant_id", tenantID.String()),
			zap.String("requested", requested.String()),
			zap.String("applied", rate.String()),
		)
	}

	if err := s.tenants.UpdateCommissionRate(ctx, tenantID, rate); err != nil {
		s.log.Error("Failed to update commission rate", zap.Error(err), zap.String("tenant_id", tenantID.String()))
		return nil, fmt.Errorf("%w: update commission", ErrPersistence)
	}
	s.resolver.Invalidate(ctx, tenant.Slug)

	tenant.CommissionRate = rate
	s.log.Info("Commission rate updated",
		zap.String("tenant_id", tenantID.String()),
		zap.String("admin_id", principal.Subject().String()),
		zap.String("rate", rate.String()),
	)
	resp := response.TenantToResponse(tenant)
	return &resp, nil
}

func (s *tenantService) find(ctx context.Context, tenantID uuid.UUID) (*entity.Tenant, error) {
	tenant, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		s.log.Error("Failed to get tenant", zap.Error(err), zap.String("tenant_id", tenantID.String()))
		return nil, fmt.Errorf("%w: get tenant", ErrPersistence)
	}
	if tenant == nil {
		return nil, fmt.Errorf("%w: tenant %s", ErrNotFound, tenantID)
	}
	return tenant, nil
}
