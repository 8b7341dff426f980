package handler

import (
	"encoding/json"
	"net/http"

	"amendvote-be/internal/domain"
	"amendvote-be/internal/middleware"
	"amendvote-be/internal/service"
	apperrors "amendvote-be/pkg/errors"
	"amendvote-be/pkg/logger"
)

// AuthHandler serves the identity and session endpoints.
type AuthHandler struct {
	auth *service.AuthService
	log  *logger.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(auth *service.AuthService, log *logger.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, log: log}
}

// Signup handles POST /auth/signup.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req domain.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.log, apperrors.NewInvalidInputError("Invalid request body"))
		return
	}

	resp, err := h.auth.Signup(r.Context(), &req)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	respondJSON(w, http.StatusCreated, resp)
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.log, apperrors.NewInvalidInputError("Invalid request body"))
		return
	}

	resp, err := h.auth.Login(r.Context(), &req)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := middleware.TokenFromRequest(r)

	if err := h.auth.Logout(r.Context(), token); err != nil {
		respondError(w, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}

// Check handles GET /auth/check. Auth middleware has already validated the
// token by the time this runs.
func (h *AuthHandler) Check(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"message": "Authenticated"})
}

// CreateAdmin handles POST /auth/create-admin (admin only).
func (h *AuthHandler) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	var req domain.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.log, apperrors.NewInvalidInputError("Invalid request body"))
		return
	}

	userID, err := h.auth.CreateAdmin(r.Context(), &req)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Admin user created successfully",
		"userId":  userID,
	})
}
