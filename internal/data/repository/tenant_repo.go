package repository

import (
	"context"
	"errors"
	"fmt"

	"wedding-booking/internal/data/entity"
	"wedding-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type tenantRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewTenantRepository(db database.PgxIface, log *zap.Logger) TenantRepository {
	return &tenantRepository{
		db:  db,
		log: log.With(zap.String("repository", "tenant")),
	}
}

const tenantColumns = `id, slug, name, base_price_cents, commission_rate::text, currency, is_active, created_at, updated_at`

func scanTenant(row pgx.Row) (*entity.Tenant, error) {
	var tenant entity.Tenant
	var rate string
	err := row.Scan(
		&tenant.ID,
		&tenant.Slug,
		&tenant.Name,
		&tenant.BasePriceCents,
		&rate,
		&tenant.Currency,
		&tenant.IsActive,
		&tenant.CreatedAt,
		&tenant.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if tenant.CommissionRate, err = decimal.NewFromString(rate); err != nil {
		return nil, fmt.Errorf("parse commission rate %q: %w", rate, err)
	}
	return &tenant, nil
}

func (r *tenantRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE id = $1`

	tenant, err := scanTenant(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find tenant by ID", zap.Error(err), zap.String("tenant_id", id.String()))
		return nil, fmt.Errorf("find tenant %s: %w", id, err)
	}
	return tenant, nil
}

func (r *tenantRepository) FindBySlug(ctx context.Context, slug string) (*entity.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE slug = $1`

	tenant, err := scanTenant(r.db.QueryRow(ctx, query, slug))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find tenant by slug", zap.Error(err), zap.String("slug", slug))
		return nil, fmt.Errorf("find tenant %s: %w", slug, err)
	}
	return tenant, nil
}

func (r *tenantRepository) UpdateCommissionRate(ctx context.Context, id uuid.UUID, rate decimal.Decimal) error {
	query := `UPDATE tenants SET commission_rate = $2::numeric, updated_at = NOW() WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id, rate.String())
	if err != nil {
		r.log.Error("Failed to update commission rate",
			zap.Error(err),
			zap.String("tenant_id", id.String()),
			zap.String("rate", rate.String()),
		)
		return fmt.Errorf("update commission rate for tenant %s: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("tenant %s not found", id)
	}
	return nil
}

func (r *tenantRepository) Create(ctx context.Context, tenant *entity.Tenant) error {
	query := `
		INSERT INTO tenants (id, slug, name, base_price_cents, commission_rate, currency, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8, $8)
	`

	_, err := r.db.Exec(ctx, query,
		tenant.ID,
		tenant.Slug,
		tenant.Name,
		tenant.BasePriceCents,
		tenant.CommissionRate.String(),
		tenant.Currency,
		tenant.IsActive,
		tenant.CreatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create tenant", zap.Error(err), zap.String("slug", tenant.Slug))
		return fmt.Errorf("create tenant %s: %w", tenant.Slug, err)
	}
	return nil
}
