package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestGenerateAndValidate(t *testing.T) {
	tm := NewTokenManager("secret", "roomstay", time.Minute)

	token, err := tm.GenerateToken("user-1", "alice@example.com")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := tm.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Errorf("expected user-1, got %q", claims.UserID)
	}
	if claims.Issuer != "roomstay" {
		t.Errorf("expected issuer roomstay, got %q", claims.Issuer)
	}
}

func TestValidateExpiredToken(t *testing.T) {
	tm := NewTokenManager("secret", "roomstay", time.Minute)

	now := time.Now()
	claims := Claims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now.Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour)),
			Issuer:    "roomstay",
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("signing: %v", err)
	}

	_, err = tm.ValidateToken(token)
	if !errors.Is(err, jwt.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestValidateGarbageToken(t *testing.T) {
	tm := NewTokenManager("secret", "roomstay", time.Minute)
	_, err := tm.ValidateToken("not.a.token")
	if err == nil {
		t.Fatal("expected error for malformed token")
	}
	if errors.Is(err, jwt.ErrTokenExpired) {
		t.Fatal("malformed token must not look expired")
	}
}

func TestValidateWrongSecret(t *testing.T) {
	issuer := NewTokenManager("other-secret", "roomstay", time.Minute)
	token, err := issuer.GenerateToken("user-1", "")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	tm := NewTokenManager("secret", "roomstay", time.Minute)
	if _, err := tm.ValidateToken(token); err == nil {
		t.Fatal("expected signature verification failure")
	}
}

func TestValidateRejectsLegacyClaimName(t *testing.T) {
	// Tokens that encoded the identity under a different claim name are
	// rejected rather than silently accepted.
	legacy := jwt.MapClaims{
		"userId": "user-1",
		"exp":    time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, legacy).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("signing: %v", err)
	}

	tm := NewTokenManager("secret", "roomstay", time.Minute)
	_, err = tm.ValidateToken(token)
	if !errors.Is(err, ErrNoIdentity) {
		t.Fatalf("expected ErrNoIdentity, got %v", err)
	}
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		header  string
		want    string
		wantErr bool
	}{
		{"Bearer abc123", "abc123", false},
		{"", "", true},
		{"Basic abc123", "", true},
		{"Bearer", "", true},
		{"Bearer ", "", true},
	}
	for _, tt := range tests {
		got, err := ExtractToken(tt.header)
		if (err != nil) != tt.wantErr {
			t.Errorf("ExtractToken(%q) error = %v, wantErr %v", tt.header, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ExtractToken(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}
