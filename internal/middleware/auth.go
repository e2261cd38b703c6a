package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/Dan9191/bank-rest/internal/auth"
	"github.com/Dan9191/bank-rest/internal/config"
	"github.com/Dan9191/bank-rest/internal/models"
)

type contextKey int

const principalKey contextKey = iota

// Principal is the authenticated caller of a request
type Principal struct {
	UserID int64
	Roles  []models.Role
}

// HasRole reports whether the caller holds role
func (p Principal) HasRole(role models.Role) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// WithPrincipal stores p in ctx
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFrom returns the caller stored by AuthMiddleware
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}

// AuthMiddleware requires a valid Bearer token on every request
func AuthMiddleware(cfg *config.Config) func(http.Handler) http.Handler {
	secret := []byte(cfg.JWTSecret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			tokenString, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || tokenString == "" {
				deny(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := auth.ParseToken(secret, tokenString)
			if err != nil {
				deny(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			userID, _ := claims.UserID()

			ctx := WithPrincipal(r.Context(), Principal{UserID: userID, Roles: claims.Roles})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects callers that do not hold role. It must run after AuthMiddleware.
func RequireRole(role models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFrom(r.Context())
			if !ok {
				deny(w, http.StatusUnauthorized, "missing bearer token")
				return
			}
			if !p.HasRole(role) {
				deny(w, http.StatusForbidden, "access denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func deny(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"status":    status,
		"error":     http.StatusText(status),
		"message":   message,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
