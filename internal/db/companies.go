package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Company is the startup-side profile row, one-to-one with a profile.
type Company struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	LogoURL     string    `json:"logo_url,omitempty"`
	Website     string    `json:"website,omitempty"`
	Industry    string    `json:"industry,omitempty"`
	CompanySize string    `json:"company_size,omitempty"`
	Location    string    `json:"location,omitempty"`
	FoundedYear int       `json:"founded_year,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

const companyColumns = `id, user_id, name, COALESCE(description, ''), COALESCE(logo_url, ''),
	COALESCE(website, ''), COALESCE(industry, ''), COALESCE(company_size, ''),
	COALESCE(location, ''), COALESCE(founded_year, 0), created_at, updated_at`

// GetCompany retrieves a company by ID. Returns nil if not found.
func (db *DB) GetCompany(ctx context.Context, id uuid.UUID) (*Company, error) {
	return db.scanCompany(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = $1`, id)
}

// GetCompanyByUserID retrieves the company owned by the given user. Returns
// nil if the user owns no company.
func (db *DB) GetCompanyByUserID(ctx context.Context, userID uuid.UUID) (*Company, error) {
	return db.scanCompany(ctx, `SELECT `+companyColumns+` FROM companies WHERE user_id = $1`, userID)
}

func (db *DB) scanCompany(ctx context.Context, query string, arg any) (*Company, error) {
	var c Company
	err := db.pool.QueryRow(ctx, query, arg).Scan(
		&c.ID, &c.UserID, &c.Name, &c.Description, &c.LogoURL, &c.Website,
		&c.Industry, &c.CompanySize, &c.Location, &c.FoundedYear, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if noRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return &c, nil
}

// UpdateCompany replaces the editable fields of a company.
func (db *DB) UpdateCompany(ctx context.Context, c *Company) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE companies SET
		   name = $1, description = NULLIF($2, ''), logo_url = NULLIF($3, ''),
		   website = NULLIF($4, ''), industry = NULLIF($5, ''),
		   company_size = NULLIF($6, ''), location = NULLIF($7, ''),
		   founded_year = NULLIF($8, 0), updated_at = NOW()
		 WHERE id = $9`,
		c.Name, c.Description, c.LogoURL, c.Website, c.Industry,
		c.CompanySize, c.Location, c.FoundedYear, c.ID)
	if err != nil {
		return fmt.Errorf("failed to update company: %w", err)
	}
	return nil
}

// Workflow holds a company's automation settings for application decisions.
type Workflow struct {
	ID                  uuid.UUID `json:"id"`
	CompanyID           uuid.UUID `json:"company_id"`
	EmailOnDecision     bool      `json:"email_on_decision"`
	AcceptanceEmailBody string    `json:"acceptance_email_body,omitempty"`
	RejectionEmailBody  string    `json:"rejection_email_body,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// GetOrCreateWorkflow fetches the workflow row for a company, creating it
// with the default email bodies on first access.
func (db *DB) GetOrCreateWorkflow(ctx context.Context, companyID uuid.UUID, defaultAcceptance, defaultRejection string) (*Workflow, error) {
	var w Workflow
	err := db.pool.QueryRow(ctx,
		`INSERT INTO company_workflows (company_id, email_on_decision, acceptance_email_body, rejection_email_body)
		 VALUES ($1, FALSE, $2, $3)
		 ON CONFLICT (company_id) DO UPDATE SET company_id = EXCLUDED.company_id
		 RETURNING id, company_id, email_on_decision,
		           COALESCE(acceptance_email_body, ''), COALESCE(rejection_email_body, ''),
		           created_at, updated_at`,
		companyID, defaultAcceptance, defaultRejection,
	).Scan(&w.ID, &w.CompanyID, &w.EmailOnDecision, &w.AcceptanceEmailBody, &w.RejectionEmailBody, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create workflow: %w", err)
	}
	return &w, nil
}

// UpdateWorkflow replaces a company's workflow settings.
func (db *DB) UpdateWorkflow(ctx context.Context, w *Workflow) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE company_workflows SET
		   email_on_decision = $1,
		   acceptance_email_body = NULLIF($2, ''),
		   rejection_email_body = NULLIF($3, ''),
		   updated_at = NOW()
		 WHERE company_id = $4`,
		w.EmailOnDecision, w.AcceptanceEmailBody, w.RejectionEmailBody, w.CompanyID)
	if err != nil {
		return fmt.Errorf("failed to update workflow: %w", err)
	}
	return nil
}
