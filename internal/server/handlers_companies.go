package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/launchpadhq/launchpad/internal/db"
	"github.com/launchpadhq/launchpad/internal/email"
	"github.com/launchpadhq/launchpad/internal/server/middleware"
)

// CompanyStore is the subset of the database layer the company and
// workflow handlers need.
type CompanyStore interface {
	GetCompany(ctx context.Context, id uuid.UUID) (*db.Company, error)
	GetCompanyByUserID(ctx context.Context, userID uuid.UUID) (*db.Company, error)
	UpdateCompany(ctx context.Context, c *db.Company) error
	GetOrCreateWorkflow(ctx context.Context, companyID uuid.UUID, defaultAcceptance, defaultRejection string) (*db.Workflow, error)
	UpdateWorkflow(ctx context.Context, w *db.Workflow) error
}

// CompanyRequest is the payload for PATCH /companies/{id}.
type CompanyRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	LogoURL     string `json:"logo_url"`
	Website     string `json:"website"`
	Industry    string `json:"industry"`
	CompanySize string `json:"company_size"`
	Location    string `json:"location"`
	FoundedYear int    `json:"founded_year"`
}

// WorkflowRequest is the payload for PATCH /workflows.
type WorkflowRequest struct {
	EmailOnDecision     bool   `json:"email_on_decision"`
	AcceptanceEmailBody string `json:"acceptance_email_body"`
	RejectionEmailBody  string `json:"rejection_email_body"`
}

// CompanyHandler handles company profile and workflow endpoints.
type CompanyHandler struct {
	store CompanyStore
	log   *zap.SugaredLogger
}

// NewCompanyHandler creates a CompanyHandler.
func NewCompanyHandler(store CompanyStore, log *zap.SugaredLogger) *CompanyHandler {
	return &CompanyHandler{
		store: store,
		log:   log,
	}
}

// Get handles GET /companies/{id}.
func (h *CompanyHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, &ErrValidation{Field: "id", Message: "must be a valid UUID"})
		return
	}

	company, err := h.store.GetCompany(r.Context(), id)
	if err != nil {
		h.log.Errorw("failed to load company", "company_id", id, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if company == nil {
		writeError(w, &ErrNotFound{Resource: "company", ID: id})
		return
	}
	writeJSON(w, http.StatusOK, company)
}

// Update handles PATCH /companies/{id}. Owner-only.
func (h *CompanyHandler) Update(w http.ResponseWriter, r *http.Request) {
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

	company, err := h.store.GetCompany(r.Context(), id)
	if err != nil {
		h.log.Errorw("failed to load company", "company_id", id, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if company == nil {
		writeError(w, &ErrNotFound{Resource: "company", ID: id})
		return
	}
	if company.UserID != userID {
		writeError(w, &ErrForbidden{Action: "update company"})
		return
	}

	var req CompanyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		writeError(w, &ErrValidation{Field: "name", Message: "required"})
		return
	}

	company.Name = req.Name
	company.Description = req.Description
	company.LogoURL = req.LogoURL
	company.Website = req.Website
	company.Industry = req.Industry
	company.CompanySize = req.CompanySize
	company.Location = req.Location
	company.FoundedYear = req.FoundedYear

	if err := h.store.UpdateCompany(r.Context(), company); err != nil {
		h.log.Errorw("failed to update company", "company_id", id, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, company)
}

// GetWorkflow handles GET /workflows for the acting startup, creating the
// row with default email bodies on first access.
func (h *CompanyHandler) GetWorkflow(w http.ResponseWriter, r *http.Request) {
	company, ok := h.requireCompany(w, r)
	if !ok {
		return
	}

	wf, err := h.store.GetOrCreateWorkflow(r.Context(), company.ID, email.DefaultAcceptanceBody, email.DefaultRejectionBody)
	if err != nil {
		h.log.Errorw("failed to load workflow", "company_id", company.ID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, wf)
}

// UpdateWorkflow handles PATCH /workflows for the acting startup.
func (h *CompanyHandler) UpdateWorkflow(w http.ResponseWriter, r *http.Request) {
	company, ok := h.requireCompany(w, r)
	if !ok {
		return
	}

	var req WorkflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// Ensure the row exists before updating it.
	wf, err := h.store.GetOrCreateWorkflow(r.Context(), company.ID, email.DefaultAcceptanceBody, email.DefaultRejectionBody)
	if err != nil {
		h.log.Errorw("failed to load workflow", "company_id", company.ID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	wf.EmailOnDecision = req.EmailOnDecision
	wf.AcceptanceEmailBody = req.AcceptanceEmailBody
	wf.RejectionEmailBody = req.RejectionEmailBody

	if err := h.store.UpdateWorkflow(r.Context(), wf); err != nil {
		h.log.Errorw("failed to update workflow", "company_id", company.ID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, wf)
}

func (h *CompanyHandler) requireCompany(w http.ResponseWriter, r *http.Request) (*db.Company, bool) {
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
