package repository

import (
	"context"
	"errors"
	"fmt"

	"wedding-booking/internal/data/entity"
	"wedding-booking/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type adminRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewAdminRepository(db database.PgxIface, log *zap.Logger) AdminRepository {
	return &adminRepository{
		db:  db,
		log: log.With(zap.String("repository", "admin")),
	}
}

func (r *adminRepository) FindByEmail(ctx context.Context, email string) (*entity.Admin, error) {
	query := `
		SELECT id, email, password_hash, role, tenant_id, is_active, created_at, updated_at
		FROM admins
		WHERE lower(email) = lower($1)
	`

	var admin entity.Admin
	err := r.db.QueryRow(ctx, query, email).Scan(
		&admin.ID,
		&admin.Email,
		&admin.PasswordHash,
		&admin.Role,
		&admin.TenantID,
		&admin.IsActive,
		&admin.CreatedAt,
		&admin.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		// email intentionally not logged
		r.log.Error("Failed to find admin by email", zap.Error(err))
		return nil, fmt.Errorf("find admin by email: %w", err)
	}

	return &admin, nil
}

// Create inserts an admin, or resets password, role and tenant of an existing email.
func (r *adminRepository) Create(ctx context.Context, admin *entity.Admin) error {
	query := `
		INSERT INTO admins (id, email, password_hash, role, tenant_id, is_active, created_at, updated_at)
		VALUES ($1, lower($2), $3, $4, $5, $6, $7, $7)
		ON CONFLICT (email)
		DO UPDATE SET password_hash = EXCLUDED.password_hash, role = EXCLUDED.role,
		              tenant_id = EXCLUDED.tenant_id, is_active = EXCLUDED.is_active, updated_at = NOW()
		RETURNING id
	`

	err := r.db.QueryRow(ctx, query,
		admin.ID,
		admin.Email,
		admin.PasswordHash,
		admin.Role,
		admin.TenantID,
		admin.IsActive,
		admin.CreatedAt,
	).Scan(&admin.ID)
	if err != nil {
		r.log.Error("Failed to create admin", zap.Error(err), zap.String("role", string(admin.Role)))
		return fmt.Errorf("create admin: %w", err)
	}
	return nil
}
