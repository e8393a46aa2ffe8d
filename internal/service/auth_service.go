package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"

	"github.com/google/uuid"
	"github.com/yourorg/roomstay/internal/domain"
	"github.com/yourorg/roomstay/internal/security/auth"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned on login with a wrong email or password.
// The cases are folded together so responses don't reveal which was wrong.
var ErrInvalidCredentials = errors.New("invalid email or password")

const minPasswordLength = 8

// AuthService handles user registration and login
type AuthService struct {
	users  domain.UserRepository
	tokens *auth.TokenManager
	logger *slog.Logger
}

// AuthResult carries the issued credential back to the handler
type AuthResult struct {
	User      *domain.User
	Token     string
	ExpiresIn int64 // seconds
}

// NewAuthService creates an auth service
func NewAuthService(users domain.UserRepository, tokens *auth.TokenManager, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{users: users, tokens: tokens, logger: logger}
}

// Register creates a new active user and issues a token for it
func (s *AuthService) Register(ctx context.Context, email, username, password string) (*AuthResult, error) {
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, domain.Validationf("email", "not a valid address")
	}
	if username == "" {
		return nil, domain.Validationf("username", "required")
	}
	if len(password) < minPasswordLength {
		return nil, domain.Validationf("password", "must be at least %d characters", minPasswordLength)
	}

	if existing, err := s.users.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, domain.ErrEmailTaken
	}
	if existing, err := s.users.GetByUsername(ctx, username); err == nil && existing != nil {
		return nil, domain.ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)
	return s.issue(user)
}

// Login verifies credentials and issues a token
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// Equalize work between unknown-user and wrong-password paths.
			bcrypt.CompareHashAndPassword([]byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"), []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	s.logger.Info("user logged in", slog.String("user_id", user.ID))
	return s.issue(user)
}

func (s *AuthService) issue(user *domain.User) (*AuthResult, error) {
	token, err := s.tokens.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("issuing token: %w", err)
	}
	return &AuthResult{
		User:      user,
		Token:     token,
		ExpiresIn: int64(s.tokens.TTL().Seconds()),
	}, nil
}
