package utils

import (
	"errors"
	"fmt"
	"time"

	"wedding-booking/internal/data/entity"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	Role     entity.AdminRole `json:"role"`
	TenantID string           `json:"tenant_id,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and parses admin access tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenIssuer(config JWTConfig) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(config.Secret),
		ttl:    time.Duration(config.ExpiryHours) * time.Hour,
	}
}

func (i *TokenIssuer) TTL() time.Duration {
	return i.ttl
}

func (i *TokenIssuer) Issue(admin *entity.Admin, now time.Time) (string, error) {
	claims := Claims{
		Role: admin.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   admin.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	if admin.TenantID != nil {
		claims.TenantID = admin.TenantID.String()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Parse validates the token and turns its claims into a Principal.
func (i *TokenIssuer) Parse(tokenStr string) (entity.Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	adminID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}

	switch claims.Role {
	case entity.AdminRolePlatform:
		return entity.PlatformAdmin{AdminID: adminID}, nil
	case entity.AdminRoleTenant:
		tenantID, err := uuid.Parse(claims.TenantID)
		if err != nil {
			return nil, fmt.Errorf("%w: tenant admin without tenant", ErrInvalidToken)
		}
		return entity.TenantAdmin{AdminID: adminID, TenantID: tenantID}, nil
	default:
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, claims.Role)
	}
}
