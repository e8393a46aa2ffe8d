package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/yourorg/roomstay/internal/domain"
	"github.com/yourorg/roomstay/internal/security/auth"
	"github.com/yourorg/roomstay/internal/security/ratelimit"
)

// Identity is the resolved caller attached to the request context after the
// auth gate passes. The password hash never leaves the gate.
type Identity struct {
	ID       string
	Email    string
	Username string
}

type identityContextKey struct{}

// 401 reason strings surfaced to clients
const (
	ReasonNoToken         = "no token"
	ReasonTokenExpired    = "token expired"
	ReasonInvalidToken    = "invalid token"
	ReasonInvalidUserID   = "invalid user id"
	ReasonUserNotFound    = "user not found"
	ReasonValidationError = "validation error"
)

// requiresAuth reports whether the route is behind the auth gate.
// Room and category reads are public; every mutation is protected.
func requiresAuth(r *http.Request) bool {
	switch {
	case strings.HasPrefix(r.URL.Path, "/api/rooms"),
		strings.HasPrefix(r.URL.Path, "/api/categories"):
		return r.Method != http.MethodGet
	default:
		return false
	}
}

// AuthGate validates the bearer credential on protected routes, resolves it
// to a user and attaches the identity to the request context. It runs once,
// before any handler logic, and never mutates user state.
func AuthGate(tm *auth.TokenManager, users domain.UserRepository, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !requiresAuth(r) {
				next.ServeHTTP(w, r)
				return
			}

			tokenString, err := auth.ExtractToken(r.Header.Get("Authorization"))
			if err != nil {
				writeUnauthorized(w, ReasonNoToken)
				return
			}

			claims, err := tm.ValidateToken(tokenString)
			if err != nil {
				writeUnauthorized(w, tokenFailureReason(err))
				return
			}

			if _, err := uuid.Parse(claims.UserID); err != nil {
				writeUnauthorized(w, ReasonInvalidUserID)
				return
			}

			user, err := users.GetByID(r.Context(), claims.UserID)
			if err != nil {
				if errors.Is(err, domain.ErrUserNotFound) {
					writeUnauthorized(w, ReasonUserNotFound)
					return
				}
				log.Error("auth gate user lookup failed",
					slog.String("user_id", claims.UserID),
					slog.String("error", err.Error()),
				)
				writeUnauthorized(w, ReasonValidationError)
				return
			}

			identity := &Identity{
				ID:       user.ID,
				Email:    user.Email,
				Username: user.Username,
			}
			ctx := context.WithValue(r.Context(), identityContextKey{}, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func tokenFailureReason(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ReasonTokenExpired
	default:
		return ReasonInvalidToken
	}
}

// RateLimitMiddleware applies a per-user sliding window on protected routes.
// It must run after the auth gate so the identity is available.
func RateLimitMiddleware(limiter *ratelimit.Limiter, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !requiresAuth(r) {
				next.ServeHTTP(w, r)
				return
			}

			key := ""
			if id := GetIdentityFromContext(r.Context()); id != nil {
				key = id.ID
			}
			if !limiter.Allow(key) {
				log.Warn("request rate limited", slog.String("user_id", key))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]string{"error": "rate limit exceeded"})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetIdentityFromContext returns the caller identity, or nil on public routes
func GetIdentityFromContext(ctx context.Context) *Identity {
	if id, ok := ctx.Value(identityContextKey{}).(*Identity); ok {
		return id
	}
	return nil
}

func writeUnauthorized(w http.ResponseWriter, reason string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": reason})
}
