package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/resellai/resell-api/internal/pkg/jwt"
	"github.com/resellai/resell-api/internal/pkg/response"
)

type contextKey string

const UserIDKey contextKey = "user_id"

// TokenRevoker checks whether a token has been revoked (logout)
type TokenRevoker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Auth returns middleware that validates the bearer credential
func Auth(jwtService *jwt.Service, revoker TokenRevoker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.Unauthorized(w, "Missing authorization header")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				response.Unauthorized(w, "Invalid authorization header format")
				return
			}

			claims, err := jwtService.ValidateAccessToken(parts[1])
			if err != nil {
				if err == jwt.ErrExpiredToken {
					response.Unauthorized(w, "Token expired")
				} else {
					response.Unauthorized(w, "Invalid token")
				}
				return
			}

			if revoker != nil {
				revoked, err := revoker.IsRevoked(r.Context(), claims.ID)
				if err == nil && revoked {
					response.Unauthorized(w, "Token revoked")
					return
				}
			}

			ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserID extracts user ID from context
func GetUserID(ctx context.Context) uuid.UUID {
	if id, ok := ctx.Value(UserIDKey).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}
