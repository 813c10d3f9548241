package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// StudentProfile is the student-side profile row, one-to-one with a profile.
type StudentProfile struct {
	ID             uuid.UUID `json:"id"`
	UserID         uuid.UUID `json:"user_id"`
	University     string    `json:"university,omitempty"`
	Major          string    `json:"major,omitempty"`
	GraduationYear int       `json:"graduation_year,omitempty"`
	Bio            string    `json:"bio,omitempty"`
	Skills         []string  `json:"skills"`
	ResumeURL      string    `json:"resume_url,omitempty"`
	LinkedinURL    string    `json:"linkedin_url,omitempty"`
	GithubURL      string    `json:"github_url,omitempty"`
	PortfolioURL   string    `json:"portfolio_url,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

const studentProfileColumns = `id, user_id, COALESCE(university, ''), COALESCE(major, ''),
	COALESCE(graduation_year, 0), COALESCE(bio, ''), COALESCE(skills, '{}'),
	COALESCE(resume_url, ''), COALESCE(linkedin_url, ''), COALESCE(github_url, ''),
	COALESCE(portfolio_url, ''), created_at, updated_at`

// GetStudentProfile retrieves a student profile by its ID. Returns nil if not found.
func (db *DB) GetStudentProfile(ctx context.Context, id uuid.UUID) (*StudentProfile, error) {
	return db.scanStudentProfile(ctx,
		`SELECT `+studentProfileColumns+` FROM student_profiles WHERE id = $1`, id)
}

// GetStudentProfileByUserID retrieves the student profile owned by the given
// user. Returns nil if the user has no student profile.
func (db *DB) GetStudentProfileByUserID(ctx context.Context, userID uuid.UUID) (*StudentProfile, error) {
	return db.scanStudentProfile(ctx,
		`SELECT `+studentProfileColumns+` FROM student_profiles WHERE user_id = $1`, userID)
}

func (db *DB) scanStudentProfile(ctx context.Context, query string, arg any) (*StudentProfile, error) {
	var sp StudentProfile
	err := db.pool.QueryRow(ctx, query, arg).Scan(
		&sp.ID, &sp.UserID, &sp.University, &sp.Major, &sp.GraduationYear, &sp.Bio,
		&sp.Skills, &sp.ResumeURL, &sp.LinkedinURL, &sp.GithubURL, &sp.PortfolioURL,
		&sp.CreatedAt, &sp.UpdatedAt)
	if err != nil {
		if noRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get student profile: %w", err)
	}
	return &sp, nil
}

// UpdateStudentProfile replaces the editable fields of a student profile.
func (db *DB) UpdateStudentProfile(ctx context.Context, sp *StudentProfile) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE student_profiles SET
		   university = NULLIF($1, ''), major = NULLIF($2, ''),
		   graduation_year = NULLIF($3, 0), bio = NULLIF($4, ''),
		   skills = $5, resume_url = NULLIF($6, ''),
		   linkedin_url = NULLIF($7, ''), github_url = NULLIF($8, ''),
		   portfolio_url = NULLIF($9, ''), updated_at = NOW()
		 WHERE id = $10`,
		sp.University, sp.Major, sp.GraduationYear, sp.Bio, sp.Skills,
		sp.ResumeURL, sp.LinkedinURL, sp.GithubURL, sp.PortfolioURL, sp.ID)
	if err != nil {
		return fmt.Errorf("failed to update student profile: %w", err)
	}
	return nil
}

// UpdateStudentEmbedding stores a fresh matching embedding for the student.
func (db *DB) UpdateStudentEmbedding(ctx context.Context, id uuid.UUID, embedding Vector) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE student_profiles SET embedding = $1::vector, updated_at = NOW() WHERE id = $2`,
		embedding.String(), id)
	if err != nil {
		return fmt.Errorf("failed to update student embedding: %w", err)
	}
	return nil
}
