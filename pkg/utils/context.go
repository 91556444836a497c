package utils

import (
	"context"

	"wedding-booking/internal/data/entity"
)

type contextKey string

const (
	PrincipalKey contextKey = "principal"
	RequestIDKey contextKey = "request_id"
)

func SetPrincipalContext(ctx context.Context, principal entity.Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, principal)
}

func GetPrincipalFromContext(ctx context.Context) (entity.Principal, bool) {
	principal, ok := ctx.Value(PrincipalKey).(entity.Principal)
	return principal, ok && principal != nil
}

func SetRequestIDContext(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

func GetRequestIDFromContext(ctx context.Context) string {
	requestID, _ := ctx.Value(RequestIDKey).(string)
	return requestID
}
