package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// JobStatus is the lifecycle state of a posting.
type JobStatus string

// Job posting statuses.
const (
	JobDraft  JobStatus = "draft"
	JobOpen   JobStatus = "open"
	JobClosed JobStatus = "closed"
	JobFilled JobStatus = "filled"
)

// Valid reports whether s is a known job status.
func (s JobStatus) Valid() bool {
	switch s {
	case JobDraft, JobOpen, JobClosed, JobFilled:
		return true
	}
	return false
}

// Job is a posting owned by a company.
type Job struct {
	ID             uuid.UUID  `json:"id"`
	CompanyID      uuid.UUID  `json:"company_id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Requirements   []string   `json:"requirements"`
	SkillsRequired []string   `json:"skills_required"`
	Duration       string     `json:"duration,omitempty"`
	Compensation   string     `json:"compensation,omitempty"`
	LocationType   string     `json:"location_type,omitempty"`
	Location       string     `json:"location,omitempty"`
	Status         JobStatus  `json:"status"`
	Deadline       *time.Time `json:"deadline,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	// CompanyName is populated on browse/matched reads via join.
	CompanyName string `json:"company_name,omitempty"`
}

const jobColumns = `j.id, j.company_id, j.title, j.description,
	COALESCE(j.requirements, '{}'), COALESCE(j.skills_required, '{}'),
	COALESCE(j.duration, ''), COALESCE(j.compensation, ''),
	COALESCE(j.location_type, ''), COALESCE(j.location, ''),
	j.status, j.deadline, j.created_at, j.updated_at`

// CreateJob inserts a posting and returns its ID.
func (db *DB) CreateJob(ctx context.Context, job *Job) (uuid.UUID, error) {
	status := job.Status
	if status == "" {
		status = JobOpen
	}
	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO jobs (company_id, title, description, requirements, skills_required,
		                   duration, compensation, location_type, location, status, deadline)
		 VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''), NULLIF($9, ''), $10, $11)
		 RETURNING id`,
		job.CompanyID, job.Title, job.Description, job.Requirements, job.SkillsRequired,
		job.Duration, job.Compensation, job.LocationType, job.Location, status, job.Deadline,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create job: %w", err)
	}
	return id, nil
}

// GetJob retrieves a posting (with the owning company name). Returns nil if
// not found.
func (db *DB) GetJob(ctx context.Context, id uuid.UUID) (*Job, error) {
	var j Job
	err := db.pool.QueryRow(ctx,
		`SELECT `+jobColumns+`, c.name
		 FROM jobs j JOIN companies c ON c.id = j.company_id
		 WHERE j.id = $1`, id,
	).Scan(&j.ID, &j.CompanyID, &j.Title, &j.Description, &j.Requirements, &j.SkillsRequired,
		&j.Duration, &j.Compensation, &j.LocationType, &j.Location, &j.Status, &j.Deadline,
		&j.CreatedAt, &j.UpdatedAt, &j.CompanyName)
	if err != nil {
		if noRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &j, nil
}

// UpdateJob replaces the editable fields of a posting.
func (db *DB) UpdateJob(ctx context.Context, job *Job) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE jobs SET
		   title = $1, description = $2, requirements = $3, skills_required = $4,
		   duration = NULLIF($5, ''), compensation = NULLIF($6, ''),
		   location_type = NULLIF($7, ''), location = NULLIF($8, ''),
		   status = $9, deadline = $10, updated_at = NOW()
		 WHERE id = $11`,
		job.Title, job.Description, job.Requirements, job.SkillsRequired,
		job.Duration, job.Compensation, job.LocationType, job.Location,
		job.Status, job.Deadline, job.ID)
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}
	return nil
}

// DeleteJob removes a posting and its applications (via cascade).
func (db *DB) DeleteJob(ctx context.Context, id uuid.UUID) error {
	result, err := db.pool.Exec(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("job not found: %s", id)
	}
	return nil
}

// JobFilters holds optional filters for browsing postings.
type JobFilters struct {
	Status    JobStatus
	CompanyID uuid.UUID
	Limit     int
}

// ListJobs retrieves postings newest-first with optional filters.
func (db *DB) ListJobs(ctx context.Context, filters JobFilters) ([]Job, error) {
	if filters.Limit == 0 {
		filters.Limit = 50
	}

	query := `SELECT ` + jobColumns + `, c.name
		FROM jobs j JOIN companies c ON c.id = j.company_id WHERE 1=1`
	args := []any{}
	argNum := 1

	if filters.Status != "" {
		query += fmt.Sprintf(" AND j.status = $%d", argNum)
		args = append(args, filters.Status)
		argNum++
	}
	if filters.CompanyID != uuid.Nil {
		query += fmt.Sprintf(" AND j.company_id = $%d", argNum)
		args = append(args, filters.CompanyID)
		argNum++
	}

	query += fmt.Sprintf(" ORDER BY j.created_at DESC LIMIT $%d", argNum)
	args = append(args, filters.Limit)

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var j Job
		if err := rows.Scan(&j.ID, &j.CompanyID, &j.Title, &j.Description, &j.Requirements,
			&j.SkillsRequired, &j.Duration, &j.Compensation, &j.LocationType, &j.Location,
			&j.Status, &j.Deadline, &j.CreatedAt, &j.UpdatedAt, &j.CompanyName); err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, nil
}

// MatchedJob is a posting with its semantic similarity to a student.
type MatchedJob struct {
	Job
	Similarity float64 `json:"similarity"`
}

// MatchedJobs returns open postings ordered by cosine similarity between the
// student's stored embedding and each job's embedding. Jobs without an
// embedding are excluded. Returns an empty slice when the student has no
// embedding yet.
func (db *DB) MatchedJobs(ctx context.Context, studentProfileID uuid.UUID, limit int) ([]MatchedJob, error) {
	if limit == 0 {
		limit = 20
	}
	rows, err := db.pool.Query(ctx,
		`SELECT `+jobColumns+`, c.name, 1 - (j.embedding <=> sp.embedding) AS similarity
		 FROM jobs j
		 JOIN companies c ON c.id = j.company_id
		 JOIN student_profiles sp ON sp.id = $1
		 WHERE j.status = 'open' AND j.embedding IS NOT NULL AND sp.embedding IS NOT NULL
		 ORDER BY j.embedding <=> sp.embedding
		 LIMIT $2`,
		studentProfileID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list matched jobs: %w", err)
	}
	defer rows.Close()

	matches := []MatchedJob{}
	for rows.Next() {
		var m MatchedJob
		if err := rows.Scan(&m.ID, &m.CompanyID, &m.Title, &m.Description, &m.Requirements,
			&m.SkillsRequired, &m.Duration, &m.Compensation, &m.LocationType, &m.Location,
			&m.Status, &m.Deadline, &m.CreatedAt, &m.UpdatedAt, &m.CompanyName, &m.Similarity); err != nil {
			return nil, fmt.Errorf("failed to scan matched job: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// UpdateJobEmbedding stores a fresh matching embedding for the posting.
func (db *DB) UpdateJobEmbedding(ctx context.Context, id uuid.UUID, embedding Vector) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE jobs SET embedding = $1::vector, updated_at = NOW() WHERE id = $2`,
		embedding.String(), id)
	if err != nil {
		return fmt.Errorf("failed to update job embedding: %w", err)
	}
	return nil
}
