package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/launchpadhq/launchpad/internal/db"
	"github.com/launchpadhq/launchpad/internal/server/middleware"
)

// ProfileStore is the subset of the database layer the profile handlers
// need.
type ProfileStore interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*db.Profile, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, fullName, avatarURL string) error
}

// ProfileRequest is the payload for PATCH /profiles/{id}.
type ProfileRequest struct {
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url"`
}

// ProfileHandler handles the account display-field endpoints. Profiles are
// private: a user can only read or update their own, addressed by id or the
// "me" alias.
type ProfileHandler struct {
	store ProfileStore
	log   *zap.SugaredLogger
}

// NewProfileHandler creates a ProfileHandler.
func NewProfileHandler(store ProfileStore, log *zap.SugaredLogger) *ProfileHandler {
	return &ProfileHandler{
		store: store,
		log:   log,
	}
}

// Get handles GET /profiles/{id}.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.resolveID(w, r)
	if !ok {
		return
	}

	profile, err := h.store.GetProfile(r.Context(), id)
	if err != nil {
		h.log.Errorw("failed to load profile", "user_id", id, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if profile == nil {
		writeError(w, &ErrNotFound{Resource: "profile", ID: id})
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// Update handles PATCH /profiles/{id}.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.resolveID(w, r)
	if !ok {
		return
	}

	var req ProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.store.UpdateProfile(r.Context(), id, req.FullName, req.AvatarURL); err != nil {
		h.log.Errorw("failed to update profile", "user_id", id, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	profile, err := h.store.GetProfile(r.Context(), id)
	if err != nil || profile == nil {
		h.log.Errorw("failed to reload profile", "user_id", id, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// resolveID maps the path id to the acting user, honoring the "me" alias.
// Any id other than the caller's own is rejected, writing the error
// response itself.
func (h *ProfileHandler) resolveID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return uuid.Nil, false
	}

	param := r.PathValue("id")
	if param == "me" {
		return userID, true
	}
	id, err := uuid.Parse(param)
	if err != nil {
		writeError(w, &ErrValidation{Field: "id", Message: "must be a valid UUID or \"me\""})
		return uuid.Nil, false
	}
	if id != userID {
		writeError(w, &ErrForbidden{Action: "access profile"})
		return uuid.Nil, false
	}
	return id, true
}
