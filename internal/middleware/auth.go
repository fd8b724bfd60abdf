package middleware

import (
	"context"
	"net/http"
	"strings"

	"warehouse-sync-api/internal/model"
	"warehouse-sync-api/internal/service"
	"warehouse-sync-api/pkg/apierror"
)

// TokenDataKey is the key for storing token data in request context.
const TokenDataKey contextKey = "token_data"

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	TokenService *service.TokenService
}

// NewAuthMiddleware creates an authentication middleware with injected dependencies.
// It resolves the X-Token header into the (actorId, role, adminId) identity the
// sync core works with.
func NewAuthMiddleware(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Skip auth for health check endpoints
			if r.URL.Path == "/api/v1/health" || r.URL.Path == "/api/v1/ready" {
				next.ServeHTTP(w, r)
				return
			}

			// Skip auth for token generation endpoint
			if r.URL.Path == "/api/v1/auth/token" && r.Method == "POST" {
				next.ServeHTTP(w, r)
				return
			}

			// Admin dashboard endpoints authenticate with X-Login-Key instead
			// (checked by the handler).
			if strings.HasPrefix(r.URL.Path, "/api/v1/admin") && r.Header.Get("X-Login-Key") != "" {
				next.ServeHTTP(w, r)
				return
			}

			token := r.Header.Get("X-Token")
			if token == "" {
				auth := r.Header.Get("Authorization")
				if strings.HasPrefix(auth, "Bearer ") {
					token = strings.TrimPrefix(auth, "Bearer ")
				}
			}

			if token == "" {
				writeError(w, apierror.Unauthorized("Authentication required. Use X-Token header."))
				return
			}

			if cfg.TokenService == nil {
				writeError(w, apierror.ServiceUnavailable("authentication unavailable"))
				return
			}

			tokenData, err := cfg.TokenService.ValidateToken(r.Context(), token)
			if err != nil {
				writeError(w, apierror.Unauthorized("Invalid or expired token"))
				return
			}

			ctx := context.WithValue(r.Context(), TokenDataKey, tokenData)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// writeError writes an API error response.
func writeError(w http.ResponseWriter, err *apierror.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.StatusCode)
	w.Write(err.ToJSON())
}

// GetTokenDataFromContext retrieves token data from request context.
func GetTokenDataFromContext(ctx context.Context) *model.TokenData {
	if data, ok := ctx.Value(TokenDataKey).(*model.TokenData); ok {
		return data
	}
	return nil
}

// RequireRole returns the caller's identity if it matches the wanted role.
func RequireRole(ctx context.Context, role model.Role) (*model.TokenData, *apierror.Error) {
	data := GetTokenDataFromContext(ctx)
	if data == nil {
		return nil, apierror.Unauthorized("")
	}
	if data.Role != role {
		return nil, apierror.Forbidden("insufficient role")
	}
	return data, nil
}
