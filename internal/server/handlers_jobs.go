package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/launchpadhq/launchpad/internal/authoring"
	"github.com/launchpadhq/launchpad/internal/db"
	"github.com/launchpadhq/launchpad/internal/embeddings"
	"github.com/launchpadhq/launchpad/internal/server/middleware"
)

// JobStore is the subset of the database layer the job handlers need.
type JobStore interface {
	CreateJob(ctx context.Context, job *db.Job) (uuid.UUID, error)
	GetJob(ctx context.Context, id uuid.UUID) (*db.Job, error)
	UpdateJob(ctx context.Context, job *db.Job) error
	DeleteJob(ctx context.Context, id uuid.UUID) error
	ListJobs(ctx context.Context, filters db.JobFilters) ([]db.Job, error)
	MatchedJobs(ctx context.Context, studentProfileID uuid.UUID, limit int) ([]db.MatchedJob, error)
	ListApplicantsForJob(ctx context.Context, jobID uuid.UUID) ([]db.JobApplicant, error)
	UpdateJobEmbedding(ctx context.Context, id uuid.UUID, embedding db.Vector) error
	GetCompanyByUserID(ctx context.Context, userID uuid.UUID) (*db.Company, error)
	GetStudentProfileByUserID(ctx context.Context, userID uuid.UUID) (*db.StudentProfile, error)
}

// JobRequest is the payload for creating or updating a posting.
type JobRequest struct {
	Title          string     `json:"title" validate:"required"`
	Description    string     `json:"description" validate:"required"`
	Requirements   []string   `json:"requirements"`
	SkillsRequired []string   `json:"skills_required"`
	Duration       string     `json:"duration"`
	Compensation   string     `json:"compensation"`
	LocationType   string     `json:"location_type"`
	Location       string     `json:"location"`
	Status         string     `json:"status"`
	Deadline       *time.Time `json:"deadline"`
}

// JobHandler handles posting CRUD, matching and authoring endpoints.
type JobHandler struct {
	store     JobStore
	embedder  *embeddings.Generator
	assistant *authoring.Assistant
	validator *validator.Validate
	log       *zap.SugaredLogger
}

// NewJobHandler creates a JobHandler. embedder and assistant may be nil, in
// which case matching embeddings are never refreshed and the authoring
// endpoints report unavailability.
func NewJobHandler(store JobStore, embedder *embeddings.Generator, assistant *authoring.Assistant, log *zap.SugaredLogger) *JobHandler {
	return &JobHandler{
		store:     store,
		embedder:  embedder,
		assistant: assistant,
		validator: validator.New(),
		log:       log,
	}
}

// List handles GET /jobs with optional ?status= and ?limit= filters.
func (h *JobHandler) List(w http.ResponseWriter, r *http.Request) {
	filters := db.JobFilters{Status: db.JobOpen}
	if s := r.URL.Query().Get("status"); s != "" {
		status := db.JobStatus(s)
		if !status.Valid() {
			writeError(w, &ErrValidation{Field: "status", Message: "invalid status"})
			return
		}
		filters.Status = status
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		limit, err := strconv.Atoi(l)
		if err != nil || limit < 1 {
			writeError(w, &ErrValidation{Field: "limit", Message: "must be a positive integer"})
			return
		}
		filters.Limit = limit
	}

	jobs, err := h.store.ListJobs(r.Context(), filters)
	if err != nil {
		h.log.Errorw("failed to list jobs", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

// Matched handles GET /jobs/matched for students: open postings ordered by
// similarity to the student's stored embedding.
func (h *JobHandler) Matched(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	student, err := h.store.GetStudentProfileByUserID(r.Context(), userID)
	if err != nil {
		h.log.Errorw("failed to load student profile", "user_id", userID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if student == nil {
		writeError(w, &ErrNotFound{Resource: "student profile"})
		return
	}

	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		limit, err = strconv.Atoi(l)
		if err != nil || limit < 1 {
			writeError(w, &ErrValidation{Field: "limit", Message: "must be a positive integer"})
			return
		}
	}

	matches, err := h.store.MatchedJobs(r.Context(), student.ID, limit)
	if err != nil {
		h.log.Errorw("failed to match jobs", "student_id", student.ID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, matches)
}

// Get handles GET /jobs/{id}.
func (h *JobHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, &ErrValidation{Field: "id", Message: "must be a valid UUID"})
		return
	}

	job, err := h.store.GetJob(r.Context(), id)
	if err != nil {
		h.log.Errorw("failed to load job", "job_id", id, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if job == nil {
		writeError(w, &ErrNotFound{Resource: "job", ID: id})
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// Create handles POST /jobs for startups.
func (h *JobHandler) Create(w http.ResponseWriter, r *http.Request) {
	company, ok := h.requireCompany(w, r)
	if !ok {
		return
	}

	var req JobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		http.Error(w, extractValidationErrors(err), http.StatusBadRequest)
		return
	}
	if req.Status != "" && !db.JobStatus(req.Status).Valid() {
		writeError(w, &ErrValidation{Field: "status", Message: "invalid status"})
		return
	}

	job := &db.Job{
		CompanyID:      company.ID,
		Title:          req.Title,
		Description:    req.Description,
		Requirements:   req.Requirements,
		SkillsRequired: req.SkillsRequired,
		Duration:       req.Duration,
		Compensation:   req.Compensation,
		LocationType:   req.LocationType,
		Location:       req.Location,
		Status:         db.JobStatus(req.Status),
		Deadline:       req.Deadline,
	}

	id, err := h.store.CreateJob(r.Context(), job)
	if err != nil {
		h.log.Errorw("failed to create job", "company_id", company.ID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	created, err := h.store.GetJob(r.Context(), id)
	if err != nil || created == nil {
		h.log.Errorw("failed to reload created job", "job_id", id, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.refreshEmbedding(r.Context(), created)

	writeJSON(w, http.StatusCreated, created)
}

// Update handles PUT /jobs/{id} for the owning startup.
func (h *JobHandler) Update(w http.ResponseWriter, r *http.Request) {
	company, ok := h.requireCompany(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, &ErrValidation{Field: "id", Message: "must be a valid UUID"})
		return
	}

	job, err := h.store.GetJob(r.Context(), id)
	if err != nil {
		h.log.Errorw("failed to load job", "job_id", id, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if job == nil {
		writeError(w, &ErrNotFound{Resource: "job", ID: id})
		return
	}
	if job.CompanyID != company.ID {
		writeError(w, &ErrForbidden{Action: "update job"})
		return
	}

	var req JobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		http.Error(w, extractValidationErrors(err), http.StatusBadRequest)
		return
	}
	status := job.Status
	if req.Status != "" {
		status = db.JobStatus(req.Status)
		if !status.Valid() {
			writeError(w, &ErrValidation{Field: "status", Message: "invalid status"})
			return
		}
	}

	job.Title = req.Title
	job.Description = req.Description
	job.Requirements = req.Requirements
	job.SkillsRequired = req.SkillsRequired
	job.Duration = req.Duration
	job.Compensation = req.Compensation
	job.LocationType = req.LocationType
	job.Location = req.Location
	job.Status = status
	job.Deadline = req.Deadline

	if err := h.store.UpdateJob(r.Context(), job); err != nil {
		h.log.Errorw("failed to update job", "job_id", id, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.refreshEmbedding(r.Context(), job)

	writeJSON(w, http.StatusOK, job)
}

// Delete handles DELETE /jobs/{id} for the owning startup.
func (h *JobHandler) Delete(w http.ResponseWriter, r *http.Request) {
	company, ok := h.requireCompany(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, &ErrValidation{Field: "id", Message: "must be a valid UUID"})
		return
	}

	job, err := h.store.GetJob(r.Context(), id)
	if err != nil {
		h.log.Errorw("failed to load job", "job_id", id, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if job == nil {
		writeError(w, &ErrNotFound{Resource: "job", ID: id})
		return
	}
	if job.CompanyID != company.ID {
		writeError(w, &ErrForbidden{Action: "delete job"})
		return
	}

	if err := h.store.DeleteJob(r.Context(), id); err != nil {
		h.log.Errorw("failed to delete job", "job_id", id, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// requireCompany loads the acting user's company, writing the error
// response itself when it cannot.
func (h *JobHandler) requireCompany(w http.ResponseWriter, r *http.Request) (*db.Company, bool) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return nil, false
	}
	company, err := h.store.GetCompanyByUserID(r.Context(), userID)
	if err != nil {
		h.log.Errorw("failed to load company", "user_id", userID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return nil, false
	}
	if company == nil {
		writeError(w, &ErrNotFound{Resource: "company"})
		return nil, false
	}
	return company, true
}

// refreshEmbedding recomputes the posting's matching embedding. Failures
// are logged; the posting stays usable without one, it just won't surface
// in matched results.
func (h *JobHandler) refreshEmbedding(ctx context.Context, job *db.Job) {
	if h.embedder == nil {
		return
	}
	vec, err := h.embedder.ForJob(ctx, job)
	if err != nil {
		h.log.Warnw("failed to generate job embedding", "job_id", job.ID, "error", err)
		return
	}
	if err := h.store.UpdateJobEmbedding(ctx, job.ID, vec); err != nil {
		h.log.Warnw("failed to store job embedding", "job_id", job.ID, "error", err)
	}
}

// JobApplicantsResponse is the payload for GET /jobs/{id}/applications.
type JobApplicantsResponse struct {
	Job          JobSummary        `json:"job"`
	Applications []db.JobApplicant `json:"applications"`
}

// JobSummary identifies the posting an applicant list belongs to.
type JobSummary struct {
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
}

// Applicants handles GET /jobs/{id}/applications for the owning startup:
// the job's applications best-score-first with each applicant's profile.
func (h *JobHandler) Applicants(w http.ResponseWriter, r *http.Request) {
	company, ok := h.requireCompany(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, &ErrValidation{Field: "id", Message: "must be a valid UUID"})
		return
	}

	job, err := h.store.GetJob(r.Context(), id)
	if err != nil {
		h.log.Errorw("failed to load job", "job_id", id, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if job == nil {
		writeError(w, &ErrNotFound{Resource: "job", ID: id})
		return
	}
	if job.CompanyID != company.ID {
		writeError(w, &ErrForbidden{Action: "view job applicants"})
		return
	}

	apps, err := h.store.ListApplicantsForJob(r.Context(), id)
	if err != nil {
		h.log.Errorw("failed to list job applicants", "job_id", id, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, JobApplicantsResponse{
		Job:          JobSummary{ID: job.ID, Title: job.Title},
		Applications: apps,
	})
}

// DescriptionRequest is the payload for the skill and requirement
// extraction endpoints.
type DescriptionRequest struct {
	Description string `json:"description"`
}

// EnhanceDescriptionRequest is the payload for POST /jobs/enhance-description.
type EnhanceDescriptionRequest struct {
	JobTitle    string `json:"job_title"`
	Description string `json:"description"`
}

// ParseSkills handles POST /jobs/parse-skills: extracts required skill
// names from a draft description.
func (h *JobHandler) ParseSkills(w http.ResponseWriter, r *http.Request) {
	description, ok := h.authoringInput(w, r)
	if !ok {
		return
	}

	skills, err := h.assistant.ParseSkills(r.Context(), description)
	if err != nil {
		h.log.Errorw("failed to parse skills", "error", err)
		http.Error(w, "Failed to extract skills", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"skills": skills})
}

// ParseRequirements handles POST /jobs/parse-requirements: extracts
// requirement statements from a draft description.
func (h *JobHandler) ParseRequirements(w http.ResponseWriter, r *http.Request) {
	description, ok := h.authoringInput(w, r)
	if !ok {
		return
	}

	requirements, err := h.assistant.ParseRequirements(r.Context(), description)
	if err != nil {
		h.log.Errorw("failed to parse requirements", "error", err)
		http.Error(w, "Failed to extract requirements", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"requirements": requirements})
}

// EnhanceDescription handles POST /jobs/enhance-description: rewrites a
// draft description using the acting startup's company profile as context.
func (h *JobHandler) EnhanceDescription(w http.ResponseWriter, r *http.Request) {
	if h.assistant == nil {
		http.Error(w, "AI assistance is not configured", http.StatusServiceUnavailable)
		return
	}

	company, ok := h.requireCompany(w, r)
	if !ok {
		return
	}

	var req EnhanceDescriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.JobTitle = strings.TrimSpace(req.JobTitle)
	req.Description = strings.TrimSpace(req.Description)
	if req.JobTitle == "" {
		writeError(w, &ErrValidation{Field: "job_title", Message: "required"})
		return
	}
	if req.Description == "" {
		writeError(w, &ErrValidation{Field: "description", Message: "required"})
		return
	}

	enhanced, err := h.assistant.EnhanceDescription(r.Context(),
		authoring.CompanyContext(company), req.JobTitle, req.Description)
	if err != nil {
		h.log.Errorw("failed to enhance description", "company_id", company.ID, "error", err)
		http.Error(w, "Failed to enhance description", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"description": enhanced})
}

// authoringInput decodes and validates the shared extraction payload,
// writing the error response itself when it cannot.
func (h *JobHandler) authoringInput(w http.ResponseWriter, r *http.Request) (string, bool) {
	if h.assistant == nil {
		http.Error(w, "AI assistance is not configured", http.StatusServiceUnavailable)
		return "", false
	}

	var req DescriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return "", false
	}
	description := strings.TrimSpace(req.Description)
	if description == "" {
		writeError(w, &ErrValidation{Field: "description", Message: "required"})
		return "", false
	}
	return description, true
}
