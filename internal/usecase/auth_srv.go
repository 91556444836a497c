package usecase

import (
	"context"
	"fmt"
	"time"

	"wedding-booking/internal/data/repository"
	"wedding-booking/internal/dto/request"
	"wedding-booking/internal/dto/response"
	"wedding-booking/pkg/utils"

	"go.uber.org/zap"
)

type AuthService interface {
	Login(ctx context.Context, req *request.LoginRequest) (*response.AuthResponse, error)
}

type authService struct {
	admins repository.AdminRepository
	tokens *utils.TokenIssuer
	log    *zap.Logger
}

func NewAuthService(admins repository.AdminRepository, tokens *utils.TokenIssuer, log *zap.Logger) AuthService {
	return &authService{
		admins: admins,
		tokens: tokens,
		log:    log.With(zap.String("service", "auth")),
	}
}

func (s *authService) Login(ctx context.Context, req *request.LoginRequest) (*response.AuthResponse, error) {
	// 1. Validate input
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Login validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	// 2. Find admin
	admin, err := s.admins.FindByEmail(ctx, req.Email)
	if err != nil {
		s.log.Error("Failed to find admin", zap.Error(err))
		return nil, fmt.Errorf("%w: find admin", ErrPersistence)
	}

	// 3. Same answer for unknown email, disabled account and wrong password
	if admin == nil || !admin.IsActive || !utils.CheckPassword(admin.PasswordHash, req.Password) {
		s.log.Warn("Login failed", zap.String("security", "bad_credentials"))
		return nil, fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
	}

	// 4. Issue token
	now := time.Now()
	token, err := s.tokens.Issue(admin, now)
	if err != nil {
		s.log.Error("Failed to sign token", zap.Error(err), zap.String("admin_id", admin.ID.String()))
		return nil, fmt.Errorf("%w: sign token", ErrPersistence)
	}

	s.log.Info("Admin logged in",
		zap.String("admin_id", admin.ID.String()),
		zap.String("role", string(admin.Role)))

	resp := response.AuthToResponse(admin, token, now.Add(s.tokens.TTL()))
	return &resp, nil
}
