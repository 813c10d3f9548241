package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ApplicationStatus is the pipeline state of an application.
type ApplicationStatus string

// Application statuses. The worker only ever moves scoring -> reviewing;
// accepted/rejected/pending are reachable through company decisions alone.
const (
	StatusPending   ApplicationStatus = "pending"
	StatusScoring   ApplicationStatus = "scoring"
	StatusReviewing ApplicationStatus = "reviewing"
	StatusAccepted  ApplicationStatus = "accepted"
	StatusRejected  ApplicationStatus = "rejected"
)

// Valid reports whether s is a known application status.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusScoring, StatusReviewing, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

// Application is one student's candidacy for one job. Score and
// ScoreBreakdown stay nil until the scoring worker completes.
type Application struct {
	ID             uuid.UUID       `json:"id"`
	JobID          uuid.UUID       `json:"job_id"`
	StudentID      uuid.UUID       `json:"student_id"`
	CoverLetter    string          `json:"cover_letter,omitempty"`
	Status         ApplicationStatus `json:"status"`
	Score          *int            `json:"score"`
	ScoreBreakdown *ScoreBreakdown `json:"score_breakdown"`
	AppliedAt      time.Time       `json:"applied_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ErrDuplicateApplication indicates the (job_id, student_id) unique
// constraint fired: the student already applied to this job.
var ErrDuplicateApplication = fmt.Errorf("application already exists for this job and student")

// CreateApplication inserts an application in 'scoring' status. Returns
// ErrDuplicateApplication if the student already applied to the job.
func (db *DB) CreateApplication(ctx context.Context, jobID, studentID uuid.UUID, coverLetter string) (*Application, error) {
	var a Application
	var breakdownJSON []byte
	err := db.pool.QueryRow(ctx,
		`INSERT INTO applications (job_id, student_id, cover_letter, status)
		 VALUES ($1, $2, NULLIF($3, ''), 'scoring')
		 RETURNING id, job_id, student_id, COALESCE(cover_letter, ''), status, score, score_breakdown, applied_at, updated_at`,
		jobID, studentID, coverLetter,
	).Scan(&a.ID, &a.JobID, &a.StudentID, &a.CoverLetter, &a.Status, &a.Score, &breakdownJSON, &a.AppliedAt, &a.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateApplication
		}
		return nil, fmt.Errorf("failed to create application: %w", err)
	}
	return &a, nil
}

// GetApplication retrieves an application row. Returns nil if not found.
func (db *DB) GetApplication(ctx context.Context, id uuid.UUID) (*Application, error) {
	var a Application
	var breakdownJSON []byte
	err := db.pool.QueryRow(ctx,
		`SELECT id, job_id, student_id, COALESCE(cover_letter, ''), status, score, score_breakdown, applied_at, updated_at
		 FROM applications WHERE id = $1`, id,
	).Scan(&a.ID, &a.JobID, &a.StudentID, &a.CoverLetter, &a.Status, &a.Score, &breakdownJSON, &a.AppliedAt, &a.UpdatedAt)
	if err != nil {
		if noRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	if len(breakdownJSON) > 0 {
		var bd ScoreBreakdown
		if err := json.Unmarshal(breakdownJSON, &bd); err == nil {
			a.ScoreBreakdown = &bd
		}
	}
	return &a, nil
}

// CompleteScoring atomically records the scoring result: score, breakdown
// and the scoring -> reviewing transition land in one UPDATE so no reader
// can observe a populated score while status is still 'scoring'.
func (db *DB) CompleteScoring(ctx context.Context, id uuid.UUID, score int, breakdown *ScoreBreakdown) error {
	breakdownJSON, err := json.Marshal(breakdown)
	if err != nil {
		return fmt.Errorf("failed to marshal score breakdown: %w", err)
	}
	_, err = db.pool.Exec(ctx,
		`UPDATE applications
		 SET score = $1, score_breakdown = $2, status = 'reviewing', updated_at = NOW()
		 WHERE id = $3`,
		score, breakdownJSON, id)
	if err != nil {
		return fmt.Errorf("failed to record scoring result: %w", err)
	}
	return nil
}

// UpdateApplicationStatus sets the status unconditionally and returns the
// updated row. No transition guard is applied; decision legality is the
// caller's concern.
func (db *DB) UpdateApplicationStatus(ctx context.Context, id uuid.UUID, status ApplicationStatus) (*Application, error) {
	var a Application
	var breakdownJSON []byte
	err := db.pool.QueryRow(ctx,
		`UPDATE applications SET status = $1, updated_at = NOW()
		 WHERE id = $2
		 RETURNING id, job_id, student_id, COALESCE(cover_letter, ''), status, score, score_breakdown, applied_at, updated_at`,
		status, id,
	).Scan(&a.ID, &a.JobID, &a.StudentID, &a.CoverLetter, &a.Status, &a.Score, &breakdownJSON, &a.AppliedAt, &a.UpdatedAt)
	if err != nil {
		if noRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update application status: %w", err)
	}
	if len(breakdownJSON) > 0 {
		var bd ScoreBreakdown
		if err := json.Unmarshal(breakdownJSON, &bd); err == nil {
			a.ScoreBreakdown = &bd
		}
	}
	return &a, nil
}

// JobScoringInfo is the job-side context for a scoring run.
type JobScoringInfo struct {
	ID             uuid.UUID
	Title          string
	Description    string
	Requirements   []string
	SkillsRequired []string
	CompanyName    string
	OwnerName      string
	OwnerEmail     string
}

// GetJobScoringInfo loads the job plus its owning company's name and the
// owner's contact for the scoring worker. Returns nil if the job is gone.
func (db *DB) GetJobScoringInfo(ctx context.Context, jobID uuid.UUID) (*JobScoringInfo, error) {
	var j JobScoringInfo
	err := db.pool.QueryRow(ctx,
		`SELECT j.id, j.title, j.description,
		        COALESCE(j.requirements, '{}'), COALESCE(j.skills_required, '{}'),
		        c.name, COALESCE(p.full_name, ''), p.email
		 FROM jobs j
		 JOIN companies c ON c.id = j.company_id
		 JOIN profiles p ON p.id = c.user_id
		 WHERE j.id = $1`, jobID,
	).Scan(&j.ID, &j.Title, &j.Description, &j.Requirements, &j.SkillsRequired, &j.CompanyName, &j.OwnerName, &j.OwnerEmail)
	if err != nil {
		if noRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job scoring info: %w", err)
	}
	return &j, nil
}

// StudentScoringInfo is the student-side context for a scoring run.
type StudentScoringInfo struct {
	ID             uuid.UUID
	FullName       string
	Email          string
	University     string
	Major          string
	GraduationYear int
	Bio            string
	Skills         []string
	LinkedinURL    string
	GithubURL      string
	PortfolioURL   string
}

// GetStudentScoringInfo loads the student profile plus the owning user's
// name and email for the scoring worker. Returns nil if the student is gone.
func (db *DB) GetStudentScoringInfo(ctx context.Context, studentID uuid.UUID) (*StudentScoringInfo, error) {
	var s StudentScoringInfo
	err := db.pool.QueryRow(ctx,
		`SELECT sp.id, COALESCE(p.full_name, ''), p.email,
		        COALESCE(sp.university, ''), COALESCE(sp.major, ''), COALESCE(sp.graduation_year, 0),
		        COALESCE(sp.bio, ''), COALESCE(sp.skills, '{}'),
		        COALESCE(sp.linkedin_url, ''), COALESCE(sp.github_url, ''), COALESCE(sp.portfolio_url, '')
		 FROM student_profiles sp
		 JOIN profiles p ON p.id = sp.user_id
		 WHERE sp.id = $1`, studentID,
	).Scan(&s.ID, &s.FullName, &s.Email, &s.University, &s.Major, &s.GraduationYear,
		&s.Bio, &s.Skills, &s.LinkedinURL, &s.GithubURL, &s.PortfolioURL)
	if err != nil {
		if noRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get student scoring info: %w", err)
	}
	return &s, nil
}

// DecisionContext is everything the decision handler needs in one read:
// ownership for the authorization check and contact/workflow data for the
// optional notification.
type DecisionContext struct {
	ApplicationID       uuid.UUID
	Status              ApplicationStatus
	CompanyOwnerUserID  uuid.UUID
	CompanyName         string
	JobTitle            string
	StudentName         string
	StudentEmail        string
	EmailOnDecision     bool
	AcceptanceEmailBody string
	RejectionEmailBody  string
}

// GetDecisionContext loads an application with its ownership and workflow
// context. Returns nil if the application does not exist.
func (db *DB) GetDecisionContext(ctx context.Context, applicationID uuid.UUID) (*DecisionContext, error) {
	var d DecisionContext
	err := db.pool.QueryRow(ctx,
		`SELECT a.id, a.status, c.user_id, c.name, j.title,
		        COALESCE(p.full_name, ''), COALESCE(p.email, ''),
		        COALESCE(w.email_on_decision, FALSE),
		        COALESCE(w.acceptance_email_body, ''), COALESCE(w.rejection_email_body, '')
		 FROM applications a
		 JOIN jobs j ON j.id = a.job_id
		 JOIN companies c ON c.id = j.company_id
		 LEFT JOIN student_profiles sp ON sp.id = a.student_id
		 LEFT JOIN profiles p ON p.id = sp.user_id
		 LEFT JOIN company_workflows w ON w.company_id = c.id
		 WHERE a.id = $1`, applicationID,
	).Scan(&d.ApplicationID, &d.Status, &d.CompanyOwnerUserID, &d.CompanyName, &d.JobTitle,
		&d.StudentName, &d.StudentEmail, &d.EmailOnDecision, &d.AcceptanceEmailBody, &d.RejectionEmailBody)
	if err != nil {
		if noRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get decision context: %w", err)
	}
	return &d, nil
}

// StudentApplication is one row of a student's application list.
type StudentApplication struct {
	ID             uuid.UUID         `json:"id"`
	Status         ApplicationStatus `json:"status"`
	AppliedAt      time.Time         `json:"applied_at"`
	CoverLetter    string            `json:"cover_letter,omitempty"`
	JobID          uuid.UUID         `json:"job_id"`
	JobTitle       string            `json:"job_title"`
	CompanyName    string            `json:"company_name"`
	CompanyLogoURL string            `json:"company_logo_url,omitempty"`
}

// ListApplicationsForStudent returns a student's applications newest-first.
// Scores are company-facing and deliberately excluded here.
func (db *DB) ListApplicationsForStudent(ctx context.Context, studentID uuid.UUID) ([]StudentApplication, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT a.id, a.status, a.applied_at, COALESCE(a.cover_letter, ''),
		        j.id, j.title, c.name, COALESCE(c.logo_url, '')
		 FROM applications a
		 JOIN jobs j ON j.id = a.job_id
		 JOIN companies c ON c.id = j.company_id
		 WHERE a.student_id = $1
		 ORDER BY a.applied_at DESC`, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list student applications: %w", err)
	}
	defer rows.Close()

	apps := []StudentApplication{}
	for rows.Next() {
		var a StudentApplication
		if err := rows.Scan(&a.ID, &a.Status, &a.AppliedAt, &a.CoverLetter,
			&a.JobID, &a.JobTitle, &a.CompanyName, &a.CompanyLogoURL); err != nil {
			return nil, fmt.Errorf("failed to scan student application: %w", err)
		}
		apps = append(apps, a)
	}
	return apps, nil
}

// CompanyApplication is one row of a company's applicant list.
type CompanyApplication struct {
	ID           uuid.UUID         `json:"id"`
	Status       ApplicationStatus `json:"status"`
	AppliedAt    time.Time         `json:"applied_at"`
	Score        *int              `json:"score"`
	ScoreBreakdown *ScoreBreakdown `json:"score_breakdown"`
	JobID        uuid.UUID         `json:"job_id"`
	JobTitle     string            `json:"job_title"`
	StudentID    uuid.UUID         `json:"student_id"`
	University   string            `json:"university,omitempty"`
	StudentName  string            `json:"student_name,omitempty"`
	StudentEmail string            `json:"student_email,omitempty"`
}

// ListApplicationsForCompany returns applications across all of a company's
// jobs, newest-first, including scores.
func (db *DB) ListApplicationsForCompany(ctx context.Context, companyID uuid.UUID) ([]CompanyApplication, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT a.id, a.status, a.applied_at, a.score, a.score_breakdown,
		        j.id, j.title, sp.id, COALESCE(sp.university, ''),
		        COALESCE(p.full_name, ''), COALESCE(p.email, '')
		 FROM applications a
		 JOIN jobs j ON j.id = a.job_id
		 JOIN student_profiles sp ON sp.id = a.student_id
		 JOIN profiles p ON p.id = sp.user_id
		 WHERE j.company_id = $1
		 ORDER BY a.applied_at DESC`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list company applications: %w", err)
	}
	defer rows.Close()

	apps := []CompanyApplication{}
	for rows.Next() {
		var a CompanyApplication
		var breakdownJSON []byte
		if err := rows.Scan(&a.ID, &a.Status, &a.AppliedAt, &a.Score, &breakdownJSON,
			&a.JobID, &a.JobTitle, &a.StudentID, &a.University, &a.StudentName, &a.StudentEmail); err != nil {
			return nil, fmt.Errorf("failed to scan company application: %w", err)
		}
		if len(breakdownJSON) > 0 {
			var bd ScoreBreakdown
			if err := json.Unmarshal(breakdownJSON, &bd); err == nil {
				a.ScoreBreakdown = &bd
			}
		}
		apps = append(apps, a)
	}
	return apps, nil
}

// ApplicationAccess holds the ownership fields needed to authorize a read of
// one application.
type ApplicationAccess struct {
	Application    Application
	JobTitle       string
	CompanyID      uuid.UUID
	CompanyName    string
	StudentUserID  uuid.UUID
	CompanyOwnerID uuid.UUID
}

// GetApplicationAccess loads an application along with both owners for
// per-role authorization. Returns nil if not found.
func (db *DB) GetApplicationAccess(ctx context.Context, id uuid.UUID) (*ApplicationAccess, error) {
	var a ApplicationAccess
	var breakdownJSON []byte
	err := db.pool.QueryRow(ctx,
		`SELECT a.id, a.job_id, a.student_id, COALESCE(a.cover_letter, ''), a.status,
		        a.score, a.score_breakdown, a.applied_at, a.updated_at,
		        j.title, c.id, c.name, sp.user_id, c.user_id
		 FROM applications a
		 JOIN jobs j ON j.id = a.job_id
		 JOIN companies c ON c.id = j.company_id
		 JOIN student_profiles sp ON sp.id = a.student_id
		 WHERE a.id = $1`, id,
	).Scan(&a.Application.ID, &a.Application.JobID, &a.Application.StudentID,
		&a.Application.CoverLetter, &a.Application.Status, &a.Application.Score, &breakdownJSON,
		&a.Application.AppliedAt, &a.Application.UpdatedAt,
		&a.JobTitle, &a.CompanyID, &a.CompanyName, &a.StudentUserID, &a.CompanyOwnerID)
	if err != nil {
		if noRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get application access: %w", err)
	}
	if len(breakdownJSON) > 0 {
		var bd ScoreBreakdown
		if err := json.Unmarshal(breakdownJSON, &bd); err == nil {
			a.Application.ScoreBreakdown = &bd
		}
	}
	return &a, nil
}

// JobApplicantStudent is the applicant profile embedded in a per-job
// applicant row.
type JobApplicantStudent struct {
	ID             uuid.UUID `json:"id"`
	FullName       string    `json:"full_name,omitempty"`
	Email          string    `json:"email,omitempty"`
	University     string    `json:"university,omitempty"`
	Major          string    `json:"major,omitempty"`
	GraduationYear int       `json:"graduation_year,omitempty"`
	Bio            string    `json:"bio,omitempty"`
	Skills         []string  `json:"skills"`
	LinkedinURL    string    `json:"linkedin_url,omitempty"`
	GithubURL      string    `json:"github_url,omitempty"`
	PortfolioURL   string    `json:"portfolio_url,omitempty"`
}

// JobApplicant is one application to a specific job, with the applicant's
// full profile attached for review.
type JobApplicant struct {
	ID             uuid.UUID           `json:"id"`
	Status         ApplicationStatus   `json:"status"`
	Score          *int                `json:"score"`
	ScoreBreakdown *ScoreBreakdown     `json:"score_breakdown"`
	CoverLetter    string              `json:"cover_letter,omitempty"`
	AppliedAt      time.Time           `json:"applied_at"`
	Student        JobApplicantStudent `json:"student"`
}

// ListApplicantsForJob returns a job's applications best-score-first, each
// with the applicant's profile. Unscored applications sort last.
func (db *DB) ListApplicantsForJob(ctx context.Context, jobID uuid.UUID) ([]JobApplicant, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT a.id, a.status, a.score, a.score_breakdown, COALESCE(a.cover_letter, ''), a.applied_at,
		        sp.id, COALESCE(p.full_name, ''), COALESCE(p.email, ''),
		        COALESCE(sp.university, ''), COALESCE(sp.major, ''), COALESCE(sp.graduation_year, 0),
		        COALESCE(sp.bio, ''), COALESCE(sp.skills, '{}'),
		        COALESCE(sp.linkedin_url, ''), COALESCE(sp.github_url, ''), COALESCE(sp.portfolio_url, '')
		 FROM applications a
		 JOIN student_profiles sp ON sp.id = a.student_id
		 JOIN profiles p ON p.id = sp.user_id
		 WHERE a.job_id = $1
		 ORDER BY a.score DESC NULLS LAST, a.applied_at DESC`, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to list job applicants: %w", err)
	}
	defer rows.Close()

	apps := []JobApplicant{}
	for rows.Next() {
		var a JobApplicant
		var breakdownJSON []byte
		if err := rows.Scan(&a.ID, &a.Status, &a.Score, &breakdownJSON, &a.CoverLetter, &a.AppliedAt,
			&a.Student.ID, &a.Student.FullName, &a.Student.Email,
			&a.Student.University, &a.Student.Major, &a.Student.GraduationYear,
			&a.Student.Bio, &a.Student.Skills,
			&a.Student.LinkedinURL, &a.Student.GithubURL, &a.Student.PortfolioURL); err != nil {
			return nil, fmt.Errorf("failed to scan job applicant: %w", err)
		}
		if len(breakdownJSON) > 0 {
			var bd ScoreBreakdown
			if err := json.Unmarshal(breakdownJSON, &bd); err == nil {
				a.ScoreBreakdown = &bd
			}
		}
		apps = append(apps, a)
	}
	return apps, nil
}
