package middleware

import (
	"net/http"
	"strings"

	"wedding-booking/pkg/utils"

	"go.uber.org/zap"
)

// Auth validates the bearer JWT and stores the resulting Principal in the
// request context. Authorization per tenant happens in the use cases.
func Auth(tokens *utils.TokenIssuer, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				utils.ResponseUnauthorized(w, "Missing authorization token")
				return
			}

			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
				utils.ResponseUnauthorized(w, "Invalid token format. Use: Bearer <token>")
				return
			}

			principal, err := tokens.Parse(strings.TrimSpace(token))
			if err != nil {
				logger.Warn("Rejected admin token",
					zap.String("security", "invalid_token"),
					zap.String("request_id", utils.GetRequestIDFromContext(r.Context())),
					zap.Error(err),
				)
				utils.ResponseUnauthorized(w, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(utils.SetPrincipalContext(r.Context(), principal)))
		})
	}
}
