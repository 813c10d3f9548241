package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/launchpadhq/launchpad/internal/db"
	"github.com/launchpadhq/launchpad/internal/queue"
	"github.com/launchpadhq/launchpad/internal/server/middleware"
)

// ApplicationStore is the subset of the database layer the application
// handlers need.
type ApplicationStore interface {
	CreateApplication(ctx context.Context, jobID, studentID uuid.UUID, coverLetter string) (*db.Application, error)
	GetApplicationAccess(ctx context.Context, id uuid.UUID) (*db.ApplicationAccess, error)
	GetDecisionContext(ctx context.Context, applicationID uuid.UUID) (*db.DecisionContext, error)
	UpdateApplicationStatus(ctx context.Context, id uuid.UUID, status db.ApplicationStatus) (*db.Application, error)
	ListApplicationsForStudent(ctx context.Context, studentID uuid.UUID) ([]db.StudentApplication, error)
	ListApplicationsForCompany(ctx context.Context, companyID uuid.UUID) ([]db.CompanyApplication, error)
	GetStudentProfileByUserID(ctx context.Context, userID uuid.UUID) (*db.StudentProfile, error)
	GetCompanyByUserID(ctx context.Context, userID uuid.UUID) (*db.Company, error)
}

// SubmitApplicationRequest is the payload for POST /applications.
type SubmitApplicationRequest struct {
	JobID       uuid.UUID `json:"job_id"`
	CoverLetter string    `json:"cover_letter"`
}

// DecideApplicationRequest is the payload for PATCH /applications/{id}.
type DecideApplicationRequest struct {
	Status db.ApplicationStatus `json:"status"`
}

// ApplicationDetail is the response for GET /applications/{id}. Score fields
// are omitted for students; scores are company-facing.
type ApplicationDetail struct {
	db.Application
	JobTitle    string `json:"job_title"`
	CompanyName string `json:"company_name"`
}

// ApplicationHandler handles the application pipeline endpoints.
type ApplicationHandler struct {
	store    ApplicationStore
	enqueuer queue.Enqueuer
	log      *zap.SugaredLogger
}

// NewApplicationHandler creates an ApplicationHandler.
func NewApplicationHandler(store ApplicationStore, enqueuer queue.Enqueuer, log *zap.SugaredLogger) *ApplicationHandler {
	return &ApplicationHandler{
		store:    store,
		enqueuer: enqueuer,
		log:      log,
	}
}

// Submit handles POST /applications. The row is created in 'scoring' status
// and a scoring task is enqueued. If the enqueue fails the row remains and
// the request surfaces a 500; the client may not retry without hitting the
// duplicate conflict, which is the accepted tradeoff.
func (h *ApplicationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req SubmitApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.JobID == uuid.Nil {
		writeError(w, &ErrValidation{Field: "job_id", Message: "required"})
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

	app, err := h.store.CreateApplication(r.Context(), req.JobID, student.ID, req.CoverLetter)
	if err != nil {
		if err == db.ErrDuplicateApplication {
			writeError(w, &ErrDuplicateApplication{JobID: req.JobID})
			return
		}
		h.log.Errorw("failed to create application", "job_id", req.JobID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if err := h.enqueuer.EnqueueScoring(r.Context(), app.ID); err != nil {
		h.log.Errorw("failed to enqueue scoring task", "application_id", app.ID, "error", err)
		http.Error(w, "Failed to queue application for scoring", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, app)
}

// List handles GET /applications, shaped by the caller's role. Students see
// their own applications without scores; startups see applicants across
// their jobs with scores.
func (h *ApplicationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	role, err := middleware.GetRole(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	switch db.Role(role) {
	case db.RoleStudent:
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
		apps, err := h.store.ListApplicationsForStudent(r.Context(), student.ID)
		if err != nil {
			h.log.Errorw("failed to list applications", "student_id", student.ID, "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, apps)

	case db.RoleStartup:
		company, err := h.store.GetCompanyByUserID(r.Context(), userID)
		if err != nil {
			h.log.Errorw("failed to load company", "user_id", userID, "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if company == nil {
			writeError(w, &ErrNotFound{Resource: "company"})
			return
		}
		apps, err := h.store.ListApplicationsForCompany(r.Context(), company.ID)
		if err != nil {
			h.log.Errorw("failed to list applications", "company_id", company.ID, "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, apps)

	default:
		http.Error(w, "Forbidden", http.StatusForbidden)
	}
}

// Get handles GET /applications/{id}. Only the applying student or the
// owner of the job's company may read it.
func (h *ApplicationHandler) Get(w http.ResponseWriter, r *http.Request) {
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

	access, err := h.store.GetApplicationAccess(r.Context(), id)
	if err != nil {
		h.log.Errorw("failed to load application", "application_id", id, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if access == nil {
		writeError(w, &ErrNotFound{Resource: "application", ID: id})
		return
	}

	detail := ApplicationDetail{
		Application: access.Application,
		JobTitle:    access.JobTitle,
		CompanyName: access.CompanyName,
	}

	switch userID {
	case access.StudentUserID:
		// Scores are company-facing.
		detail.Score = nil
		detail.ScoreBreakdown = nil
	case access.CompanyOwnerID:
		// Full view.
	default:
		writeError(w, &ErrForbidden{Action: "view application"})
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

// Decide handles PATCH /applications/{id}. The status update is
// unconditional for the owning company; a decision email is enqueued only
// when the status actually changed to accepted or rejected and the company
// opted in.
func (h *ApplicationHandler) Decide(w http.ResponseWriter, r *http.Request) {
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

	var req DecideApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if !req.Status.Valid() {
		writeError(w, &ErrValidation{Field: "status", Message: "invalid status"})
		return
	}

	dc, err := h.store.GetDecisionContext(r.Context(), id)
	if err != nil {
		h.log.Errorw("failed to load decision context", "application_id", id, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if dc == nil {
		writeError(w, &ErrNotFound{Resource: "application", ID: id})
		return
	}
	if dc.CompanyOwnerUserID != userID {
		writeError(w, &ErrForbidden{Action: "decide application"})
		return
	}

	app, err := h.store.UpdateApplicationStatus(r.Context(), id, req.Status)
	if err != nil {
		h.log.Errorw("failed to update application status", "application_id", id, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if app == nil {
		writeError(w, &ErrNotFound{Resource: "application", ID: id})
		return
	}

	h.maybeNotifyDecision(r.Context(), dc, req.Status)

	writeJSON(w, http.StatusOK, app)
}

// maybeNotifyDecision enqueues a decision email when all conditions hold:
// the new status is accepted or rejected, the status actually changed, the
// company opted in, and the student has a resolvable email. Enqueue failure
// is logged and never fails the request.
func (h *ApplicationHandler) maybeNotifyDecision(ctx context.Context, dc *db.DecisionContext, newStatus db.ApplicationStatus) {
	if newStatus != db.StatusAccepted && newStatus != db.StatusRejected {
		return
	}
	if dc.Status == newStatus {
		return
	}
	if !dc.EmailOnDecision || dc.StudentEmail == "" {
		return
	}

	// An empty body falls back to the built-in default at render time.
	body := dc.RejectionEmailBody
	if newStatus == db.StatusAccepted {
		body = dc.AcceptanceEmailBody
	}

	job := queue.NewDecisionJob(queue.DecisionEmail{
		StudentEmail: dc.StudentEmail,
		StudentName:  dc.StudentName,
		JobTitle:     dc.JobTitle,
		CompanyName:  dc.CompanyName,
		Status:       newStatus,
		EmailBody:    body,
	})
	if err := h.enqueuer.EnqueueEmail(ctx, job); err != nil {
		h.log.Errorw("failed to enqueue decision email",
			"application_id", dc.ApplicationID, "status", newStatus, "error", err)
	}
}
