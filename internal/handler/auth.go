package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/yourorg/roomstay/internal/service"
)

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expiresIn"`
	UserID    string `json:"userId"`
	Email     string `json:"email"`
	Username  string `json:"username"`
}

func toAuthResponse(result *service.AuthResult) authResponse {
	return authResponse{
		Token:     result.Token,
		ExpiresIn: result.ExpiresIn,
		UserID:    result.User.ID,
		Email:     result.User.Email,
		Username:  result.User.Username,
	}
}

// RegisterHandler handles POST /api/auth/register
type RegisterHandler struct {
	auth       *service.AuthService
	logger     *slog.Logger
	production bool
}

// NewRegisterHandler creates a new register handler
func NewRegisterHandler(auth *service.AuthService, logger *slog.Logger, production bool) *RegisterHandler {
	return &RegisterHandler{auth: auth, logger: logger, production: production}
}

func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "malformed json"})
		return
	}

	result, err := h.auth.Register(r.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		writeError(w, h.logger, h.production, err)
		return
	}

	writeJSON(w, http.StatusCreated, toAuthResponse(result))
}

// LoginHandler handles POST /api/auth/login
type LoginHandler struct {
	auth       *service.AuthService
	logger     *slog.Logger
	production bool
}

// NewLoginHandler creates a new login handler
func NewLoginHandler(auth *service.AuthService, logger *slog.Logger, production bool) *LoginHandler {
	return &LoginHandler{auth: auth, logger: logger, production: production}
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "malformed json"})
		return
	}

	result, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, h.logger, h.production, err)
		return
	}

	writeJSON(w, http.StatusOK, toAuthResponse(result))
}
