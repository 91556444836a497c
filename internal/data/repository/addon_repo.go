package repository

import (
	"context"
	"fmt"

	"wedding-booking/internal/data/entity"
	"wedding-booking/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type addonRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewAddonRepository(db database.PgxIface, log *zap.Logger) AddonRepository {
	return &addonRepository{
		db:  db,
		log: log.With(zap.String("repository", "addon")),
	}
}

func (r *addonRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*entity.Addon, error) {
	addons, err := findAddonsByIDs(ctx, r.db, tenantID, ids)
	if err != nil {
		r.log.Error("Failed to find addons", zap.Error(err), zap.String("tenant_id", tenantID.String()))
		return nil, err
	}
	return addons, nil
}

// findAddonsByIDs reads catalog prices; shared by the pool and the booking transaction.
func findAddonsByIDs(ctx context.Context, q database.Querier, tenantID uuid.UUID, ids []uuid.UUID) ([]*entity.Addon, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, tenant_id, name, unit_price_cents, is_active, created_at, updated_at
		FROM addons
		WHERE tenant_id = $1 AND id = ANY($2) AND is_active
	`

	rows, err := q.Query(ctx, query, tenantID, ids)
	if err != nil {
		return nil, fmt.Errorf("find addons for tenant %s: %w", tenantID, err)
	}
	defer rows.Close()

	var addons []*entity.Addon
	for rows.Next() {
		var addon entity.Addon
		if err := rows.Scan(
			&addon.ID,
			&addon.TenantID,
			&addon.Name,
			&addon.UnitPriceCents,
			&addon.IsActive,
			&addon.CreatedAt,
			&addon.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan addon row: %w", err)
		}
		addons = append(addons, &addon)
	}

	return addons, rows.Err()
}

func (r *addonRepository) Create(ctx context.Context, addon *entity.Addon) error {
	query := `
		INSERT INTO addons (id, tenant_id, name, unit_price_cents, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
	`

	_, err := r.db.Exec(ctx, query,
		addon.ID,
		addon.TenantID,
		addon.Name,
		addon.UnitPriceCents,
		addon.IsActive,
		addon.CreatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create addon", zap.Error(err), zap.String("tenant_id", addon.TenantID.String()))
		return fmt.Errorf("create addon %s: %w", addon.Name, err)
	}
	return nil
}
