package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/launchpadhq/launchpad/internal/db"
	"github.com/launchpadhq/launchpad/internal/embeddings"
	"github.com/launchpadhq/launchpad/internal/server/middleware"
)

// StudentStore is the subset of the database layer the student profile
// handlers need.
type StudentStore interface {
	GetStudentProfile(ctx context.Context, id uuid.UUID) (*db.StudentProfile, error)
	UpdateStudentProfile(ctx context.Context, sp *db.StudentProfile) error
	UpdateStudentEmbedding(ctx context.Context, id uuid.UUID, embedding db.Vector) error
	GetProfile(ctx context.Context, id uuid.UUID) (*db.Profile, error)
}

// StudentProfileRequest is the payload for PATCH /student-profiles/{id}.
type StudentProfileRequest struct {
	University     string   `json:"university"`
	Major          string   `json:"major"`
	GraduationYear int      `json:"graduation_year"`
	Bio            string   `json:"bio"`
	Skills         []string `json:"skills"`
	ResumeURL      string   `json:"resume_url"`
	LinkedinURL    string   `json:"linkedin_url"`
	GithubURL      string   `json:"github_url"`
	PortfolioURL   string   `json:"portfolio_url"`
}

// StudentHandler handles student profile endpoints.
type StudentHandler struct {
	store    StudentStore
	embedder *embeddings.Generator
	log      *zap.SugaredLogger
}

// NewStudentHandler creates a StudentHandler. embedder may be nil.
func NewStudentHandler(store StudentStore, embedder *embeddings.Generator, log *zap.SugaredLogger) *StudentHandler {
	return &StudentHandler{
		store:    store,
		embedder: embedder,
		log:      log,
	}
}

// Get handles GET /student-profiles/{id}.
func (h *StudentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, &ErrValidation{Field: "id", Message: "must be a valid UUID"})
		return
	}

	sp, err := h.store.GetStudentProfile(r.Context(), id)
	if err != nil {
		h.log.Errorw("failed to load student profile", "student_id", id, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if sp == nil {
		writeError(w, &ErrNotFound{Resource: "student profile", ID: id})
		return
	}
	writeJSON(w, http.StatusOK, sp)
}

// Update handles PATCH /student-profiles/{id}. Owner-only. A successful
// update refreshes the stored matching embedding best-effort.
func (h *StudentHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, &ErrValidation{Field: "id", Message: "must be a valid UUID"})
		return
	}

	sp, err := h.store.GetStudentProfile(r.Context(), id)
	if err != nil {
		h.log.Errorw("failed to load student profile", "student_id", id, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if sp == nil {
		writeError(w, &ErrNotFound{Resource: "student profile", ID: id})
		return
	}
	if sp.UserID != userID {
		writeError(w, &ErrForbidden{Action: "update student profile"})
		return
	}

	var req StudentProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	sp.University = req.University
	sp.Major = req.Major
	sp.GraduationYear = req.GraduationYear
	sp.Bio = req.Bio
	sp.Skills = req.Skills
	sp.ResumeURL = req.ResumeURL
	sp.LinkedinURL = req.LinkedinURL
	sp.GithubURL = req.GithubURL
	sp.PortfolioURL = req.PortfolioURL

	if err := h.store.UpdateStudentProfile(r.Context(), sp); err != nil {
		h.log.Errorw("failed to update student profile", "student_id", id, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.refreshEmbedding(r.Context(), sp)

	writeJSON(w, http.StatusOK, sp)
}

// refreshEmbedding recomputes the student's matching embedding after a
// profile change. Failures are logged; matching just won't reflect the
// latest profile until the next successful refresh.
func (h *StudentHandler) refreshEmbedding(ctx context.Context, sp *db.StudentProfile) {
	if h.embedder == nil {
		return
	}
	profile, err := h.store.GetProfile(ctx, sp.UserID)
	if err != nil || profile == nil {
		h.log.Warnw("failed to load profile for embedding", "user_id", sp.UserID, "error", err)
		return
	}
	vec, err := h.embedder.ForStudent(ctx, profile.FullName, sp)
	if err != nil {
		h.log.Warnw("failed to generate student embedding", "student_id", sp.ID, "error", err)
		return
	}
	if err := h.store.UpdateStudentEmbedding(ctx, sp.ID, vec); err != nil {
		h.log.Warnw("failed to store student embedding", "student_id", sp.ID, "error", err)
	}
}
