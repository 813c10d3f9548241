package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role is the account type of a profile.
type Role string

// Account roles.
const (
	RoleStudent Role = "student"
	RoleStartup Role = "startup"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleStartup
}

// Profile is a user account row.
type Profile struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	FullName     string    `json:"full_name,omitempty"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ErrEmailTaken indicates the email column's unique constraint fired.
var ErrEmailTaken = fmt.Errorf("email already registered")

// CreateAccount inserts the profile plus its role-specific row (an empty
// student profile for students, a company for startups) in one transaction.
func (db *DB) CreateAccount(ctx context.Context, email, passwordHash string, role Role, fullName, companyName string) (*Profile, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var p Profile
	err = tx.QueryRow(ctx,
		`INSERT INTO profiles (email, role, full_name, password_hash)
		 VALUES ($1, $2, NULLIF($3, ''), $4)
		 RETURNING id, email, role, COALESCE(full_name, ''), COALESCE(avatar_url, ''), created_at, updated_at`,
		email, role, fullName, passwordHash,
	).Scan(&p.ID, &p.Email, &p.Role, &p.FullName, &p.AvatarURL, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	switch role {
	case RoleStudent:
		_, err = tx.Exec(ctx,
			`INSERT INTO student_profiles (user_id) VALUES ($1)`, p.ID)
	case RoleStartup:
		name := companyName
		if name == "" {
			name = "My Company"
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO companies (user_id, name) VALUES ($1, $2)`, p.ID, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s row: %w", role, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit account creation: %w", err)
	}
	return &p, nil
}

// GetProfile retrieves a profile by ID. Returns nil if not found.
func (db *DB) GetProfile(ctx context.Context, id uuid.UUID) (*Profile, error) {
	return db.scanProfile(ctx,
		`SELECT id, email, role, COALESCE(full_name, ''), COALESCE(avatar_url, ''), password_hash, created_at, updated_at
		 FROM profiles WHERE id = $1`, id)
}

// GetProfileByEmail retrieves a profile by email. Returns nil if not found.
func (db *DB) GetProfileByEmail(ctx context.Context, email string) (*Profile, error) {
	return db.scanProfile(ctx,
		`SELECT id, email, role, COALESCE(full_name, ''), COALESCE(avatar_url, ''), password_hash, created_at, updated_at
		 FROM profiles WHERE email = $1`, email)
}

func (db *DB) scanProfile(ctx context.Context, query string, arg any) (*Profile, error) {
	var p Profile
	err := db.pool.QueryRow(ctx, query, arg).Scan(
		&p.ID, &p.Email, &p.Role, &p.FullName, &p.AvatarURL, &p.PasswordHash, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if noRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &p, nil
}

// UpdateProfile sets the mutable display fields of a profile.
func (db *DB) UpdateProfile(ctx context.Context, id uuid.UUID, fullName, avatarURL string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE profiles SET full_name = NULLIF($1, ''), avatar_url = NULLIF($2, ''), updated_at = NOW()
		 WHERE id = $3`,
		fullName, avatarURL, id)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}
