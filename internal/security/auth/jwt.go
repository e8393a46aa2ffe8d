package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoIdentity is returned when a structurally valid token carries no
// user_id claim. Older token shapes that encoded the identity under a
// different name are deliberately not accepted; user_id is the only claim
// the verifier honors.
var ErrNoIdentity = errors.New("token carries no user identity")

// ErrNoBearer is returned when the Authorization header is absent or is not
// a bearer credential.
var ErrNoBearer = errors.New("no bearer token")

// Claims is the token payload. The identity lives in the user_id claim.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies HS256 bearer tokens against a
// process-wide secret.
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewTokenManager creates a token manager
func NewTokenManager(secret, issuer string, ttl time.Duration) *TokenManager {
	if secret == "" {
		secret = "change-me-in-production"
	}
	if issuer == "" {
		issuer = "roomstay"
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenManager{secret: []byte(secret), issuer: issuer, ttl: ttl}
}

// TTL returns the lifetime stamped on issued tokens
func (tm *TokenManager) TTL() time.Duration {
	return tm.ttl
}

// GenerateToken issues a signed token for a user
func (tm *TokenManager) GenerateToken(userID, email string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("user id required")
	}
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.ttl)),
			Issuer:    tm.issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tm.secret)
}

// ValidateToken verifies signature and expiry and returns the claims.
// Parse failures keep their jwt sentinel wrapping so callers can
// distinguish expiry from malformed input with errors.Is.
func (tm *TokenManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return tm.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token failed: %w", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.UserID == "" {
		return nil, ErrNoIdentity
	}
	return claims, nil
}

// ExtractToken pulls the token out of an "Authorization: Bearer <token>"
// header value.
func ExtractToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", ErrNoBearer
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", ErrNoBearer
	}
	return parts[1], nil
}
