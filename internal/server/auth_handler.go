package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/launchpadhq/launchpad/internal/config"
	"github.com/launchpadhq/launchpad/internal/db"
	"github.com/launchpadhq/launchpad/internal/queue"
	"github.com/launchpadhq/launchpad/internal/server/middleware"
)

// AccountStore is the subset of the database layer the auth handler needs.
type AccountStore interface {
	CreateAccount(ctx context.Context, email, passwordHash string, role db.Role, fullName, companyName string) (*db.Profile, error)
	GetProfile(ctx context.Context, id uuid.UUID) (*db.Profile, error)
	GetProfileByEmail(ctx context.Context, email string) (*db.Profile, error)
}

// RegisterRequest is the payload for POST /auth/register.
type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	Role        string `json:"role" validate:"required,oneof=student startup"`
	FullName    string `json:"full_name" validate:"required"`
	CompanyName string `json:"company_name"`
}

// LoginRequest is the payload for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	User  *db.Profile `json:"user"`
	Token string      `json:"token"`
}

// AuthHandler handles authentication-related HTTP requests.
type AuthHandler struct {
	store      AccountStore
	passwords  *config.PasswordConfig
	jwtService *JWTService
	enqueuer   queue.Enqueuer
	validator  *validator.Validate
	log        *zap.SugaredLogger
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(store AccountStore, passwords *config.PasswordConfig, jwtService *JWTService, enqueuer queue.Enqueuer, log *zap.SugaredLogger) *AuthHandler {
	return &AuthHandler{
		store:      store,
		passwords:  passwords,
		jwtService: jwtService,
		enqueuer:   enqueuer,
		validator:  validator.New(),
		log:        log,
	}
}

// Register handles account creation requests. A welcome email is enqueued
// best-effort; registration succeeds even if the queue is down.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.validator.Struct(req); err != nil {
		http.Error(w, extractValidationErrors(err), http.StatusBadRequest)
		return
	}

	hash, err := h.passwords.HashPassword(req.Password)
	if err != nil {
		h.log.Errorw("failed to hash password", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	user, err := h.store.CreateAccount(r.Context(), req.Email, hash, db.Role(req.Role), req.FullName, req.CompanyName)
	if err != nil {
		if err == db.ErrEmailTaken {
			err = &ErrEmailAlreadyExists{Email: req.Email}
		}
		http.Error(w, err.Error(), HTTPStatus(err))
		return
	}

	if h.enqueuer != nil {
		if err := h.enqueuer.EnqueueEmail(r.Context(), queue.NewWelcomeJob(user.Email, user.FullName, user.Role)); err != nil {
			h.log.Errorw("failed to enqueue welcome email", "user_id", user.ID, "error", err)
		}
	}

	token, err := h.jwtService.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, AuthResponse{User: user, Token: token})
}

// Login handles user login requests. Unknown email and bad password produce
// the same response to avoid leaking which emails are registered.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.validator.Struct(req); err != nil {
		http.Error(w, extractValidationErrors(err), http.StatusBadRequest)
		return
	}

	user, err := h.store.GetProfileByEmail(r.Context(), req.Email)
	if err != nil {
		h.log.Errorw("failed to look up profile", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if user == nil || !h.passwords.VerifyPassword(req.Password, user.PasswordHash) {
		invalidErr := &ErrInvalidCredentials{}
		http.Error(w, invalidErr.Error(), HTTPStatus(invalidErr))
		return
	}

	token, err := h.jwtService.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{User: user, Token: token})
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := h.store.GetProfile(r.Context(), userID)
	if err != nil {
		h.log.Errorw("failed to load profile", "user_id", userID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if user == nil {
		notFound := &ErrNotFound{Resource: "user", ID: userID}
		http.Error(w, notFound.Error(), HTTPStatus(notFound))
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// extractValidationErrors extracts validation error messages from validator errors.
func extractValidationErrors(err error) string {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		if len(validationErrors) > 0 {
			// Return first validation error for simplicity
			ve := validationErrors[0]
			return fmt.Sprintf("validation error: %s - %s", ve.Field(), ve.Tag())
		}
	}
	return "validation error: invalid request"
}
