package cmd

import (
	"fmt"
	"time"

	"wedding-booking/internal/data/entity"
	"wedding-booking/internal/data/repository"
	"wedding-booking/internal/usecase"
	"wedding-booking/pkg/database"
	"wedding-booking/pkg/utils"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	tenantCmd = &cobra.Command{Use: "tenant", Short: "Manage tenants"}
	addonCmd  = &cobra.Command{Use: "addon", Short: "Manage add-on catalogs"}
	adminCmd  = &cobra.Command{Use: "admin", Short: "Manage admin accounts"}
)

func init() {
	tenantCreate := &cobra.Command{
		Use:   "create",
		Short: "Create a tenant",
		RunE:  runTenantCreate,
	}
	tenantCreate.Flags().String("slug", "", "URL slug, e.g. bella-weddings")
	tenantCreate.Flags().String("name", "", "display name")
	tenantCreate.Flags().Int64("base-price", 0, "date price in cents")
	tenantCreate.Flags().String("rate", "10", "commission percent (clamped into the configured range)")
	tenantCreate.Flags().String("currency", "usd", "ISO currency")
	_ = tenantCreate.MarkFlagRequired("slug")
	_ = tenantCreate.MarkFlagRequired("name")
	tenantCmd.AddCommand(tenantCreate)

	addonCreate := &cobra.Command{
		Use:   "create",
		Short: "Add a catalog item to a tenant",
		RunE:  runAddonCreate,
	}
	addonCreate.Flags().String("tenant", "", "tenant slug")
	addonCreate.Flags().String("name", "", "add-on name")
	addonCreate.Flags().Int64("price", 0, "unit price in cents")
	_ = addonCreate.MarkFlagRequired("tenant")
	_ = addonCreate.MarkFlagRequired("name")
	addonCmd.AddCommand(addonCreate)

	adminCreate := &cobra.Command{
		Use:   "create",
		Short: "Create or reset an admin account",
		RunE:  runAdminCreate,
	}
	adminCreate.Flags().String("email", "", "login email")
	adminCreate.Flags().String("password", "", "password (min 8 chars)")
	adminCreate.Flags().String("tenant", "", "tenant slug; omit for a platform admin")
	_ = adminCreate.MarkFlagRequired("email")
	_ = adminCreate.MarkFlagRequired("password")
	adminCmd.AddCommand(adminCreate)
}

func withPostgres(fn func(repo *repository.Repository) error) error {
	db, err := database.InitDB(config.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()
	return fn(repository.NewRepository(db, txOptions(), logger))
}

func runTenantCreate(cmd *cobra.Command, args []string) error {
	slug, _ := cmd.Flags().GetString("slug")
	name, _ := cmd.Flags().GetString("name")
	basePrice, _ := cmd.Flags().GetInt64("base-price")
	rawRate, _ := cmd.Flags().GetString("rate")
	currency, _ := cmd.Flags().GetString("currency")

	if basePrice < 0 {
		return fmt.Errorf("base-price must not be negative")
	}
	rate, err := decimal.NewFromString(rawRate)
	if err != nil {
		return fmt.Errorf("rate: %w", err)
	}
	rate = usecase.ClampCommissionRate(rate, config.Booking.MinCommissionRate, config.Booking.MaxCommissionRate)

	now := time.Now()
	tenant := &entity.Tenant{
		BaseNoDelete:   entity.NewBase(now),
		Slug:           slug,
		Name:           name,
		BasePriceCents: basePrice,
		CommissionRate: rate,
		Currency:       currency,
		IsActive:       true,
	}
	return withPostgres(func(repo *repository.Repository) error {
		if err := repo.Tenant.Create(cmd.Context(), tenant); err != nil {
			return err
		}
		logger.Info("Tenant created",
			zap.String("tenant_id", tenant.ID.String()),
			zap.String("slug", slug),
			zap.String("rate", rate.String()),
		)
		return nil
	})
}

func runAddonCreate(cmd *cobra.Command, args []string) error {
	slug, _ := cmd.Flags().GetString("tenant")
	name, _ := cmd.Flags().GetString("name")
	price, _ := cmd.Flags().GetInt64("price")
	if price < 0 {
		return fmt.Errorf("price must not be negative")
	}

	return withPostgres(func(repo *repository.Repository) error {
		tenant, err := repo.Tenant.FindBySlug(cmd.Context(), slug)
		if err != nil {
			return err
		}
		if tenant == nil {
			return fmt.Errorf("tenant %q not found", slug)
		}

		now := time.Now()
		addon := &entity.Addon{
			BaseNoDelete:   entity.NewBase(now),
			TenantID:       tenant.ID,
			Name:           name,
			UnitPriceCents: price,
			IsActive:       true,
		}
		if err := repo.Addon.Create(cmd.Context(), addon); err != nil {
			return err
		}
		logger.Info("Add-on created", zap.String("addon_id", addon.ID.String()), zap.String("tenant", slug))
		return nil
	})
}

func runAdminCreate(cmd *cobra.Command, args []string) error {
	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")
	slug, _ := cmd.Flags().GetString("tenant")

	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return withPostgres(func(repo *repository.Repository) error {
		now := time.Now()
		admin := &entity.Admin{
			BaseNoDelete: entity.NewBase(now),
			Email:        email,
			PasswordHash: hash,
			Role:         entity.AdminRolePlatform,
			IsActive:     true,
		}
		if slug != "" {
			tenant, err := repo.Tenant.FindBySlug(cmd.Context(), slug)
			if err != nil {
				return err
			}
			if tenant == nil {
				return fmt.Errorf("tenant %q not found", slug)
			}
			admin.Role = entity.AdminRoleTenant
			admin.TenantID = &tenant.ID
		}

		if err := repo.Admin.Create(cmd.Context(), admin); err != nil {
			return err
		}
		logger.Info("Admin saved", zap.String("admin_id", admin.ID.String()), zap.String("role", string(admin.Role)))
		return nil
	})
}
