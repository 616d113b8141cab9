package middleware

import (
	"net/http"
	"strings"

	"github.com/shashiranjanraj/diner/pkg/auth"
	"github.com/shashiranjanraj/diner/pkg/logger"
	"github.com/shashiranjanraj/diner/pkg/response"
)

// TokenValidator verifies a bearer token.
type TokenValidator interface {
	ValidateToken(token string) (*auth.Claims, error)
}

func bearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// Authenticate rejects requests without a bearer token (401) or with an
// invalid or expired one (403), and attaches the identity otherwise.
func Authenticate(v TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearer(r)
			if token == "" {
				response.Unauthorized(w, "Access token required")
				return
			}

			claims, err := v.ValidateToken(token)
			if err != nil {
				logger.WithCtx(r.Context()).Debug("auth: token rejected", "error", err)
				response.Forbidden(w, "Invalid or expired token")
				return
			}

			ctx := auth.WithIdentity(r.Context(), auth.Identity{UserID: claims.UserID, Role: claims.Role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth attaches the identity when a valid bearer token is present.
// A missing or invalid token leaves the request anonymous.
func OptionalAuth(v TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := bearer(r); token != "" {
				if claims, err := v.ValidateToken(token); err == nil {
					r = r.WithContext(auth.WithIdentity(r.Context(), auth.Identity{UserID: claims.UserID, Role: claims.Role}))
				} else {
					logger.WithCtx(r.Context()).Info("auth: ignoring invalid token on guest route", "error", err)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
