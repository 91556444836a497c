package usecase

import (
	"context"
	"fmt"

	"wedding-booking/internal/data/entity"
	"wedding-booking/internal/data/repository"

	"go.uber.org/zap"
)

// TenantCache is an optional read-through cache keyed by tenant slug.
// GetTenant returns (nil, nil) on a miss.
type TenantCache interface {
	GetTenant(ctx context.Context, slug string) (*entity.Tenant, error)
	SetTenant(ctx context.Context, tenant *entity.Tenant) error
	DeleteTenant(ctx context.Context, slug string) error
}

type TenantResolver struct {
	tenants repository.TenantRepository
	cache   TenantCache
	log     *zap.Logger
}

// NewTenantResolver accepts a nil cache.
func NewTenantResolver(tenants repository.TenantRepository, cache TenantCache, log *zap.Logger) *TenantResolver {
	return &TenantResolver{
		tenants: tenants,
		cache:   cache,
		log:     log.With(zap.String("service", "tenant_resolver")),
	}
}

// BySlug returns the active tenant for slug or ErrNotFound.
func (r *TenantResolver) BySlug(ctx context.Context, slug string) (*entity.Tenant, error) {
	if r.cache != nil {
		tenant, err := r.cache.GetTenant(ctx, slug)
		if err != nil {
			r.log.Warn("Tenant cache read failed", zap.Error(err), zap.String("slug", slug))
		} else if tenant != nil {
			return tenant, nil
		}
	}

	tenant, err := r.tenants.FindBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("%w: find tenant", ErrPersistence)
	}
	if tenant == nil || !tenant.IsActive {
		return nil, fmt.Errorf("%w: tenant %q", ErrNotFound, slug)
	}

	if r.cache != nil {
		if err := r.cache.SetTenant(ctx, tenant); err != nil {
			r.log.Warn("Tenant cache write failed", zap.Error(err), zap.String("slug", slug))
		}
	}
	return tenant, nil
}

// Invalidate drops a tenant from the cache after its settings changed.
func (r *TenantResolver) Invalidate(ctx context.Context, slug string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.DeleteTenant(ctx, slug); err != nil {
		r.log.Warn("Tenant cache invalidation failed", zap.Error(err), zap.String("slug", slug))
	}
}
