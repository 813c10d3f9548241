// Package embeddings builds the canonical text representations of students
// and jobs and turns them into vectors for semantic matching.
package embeddings

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/launchpadhq/launchpad/internal/db"
	"github.com/launchpadhq/launchpad/internal/llm"
)

// Generator produces matching embeddings. The text layout feeding the model
// is fixed; changing it silently degrades similarity against stored vectors.
type Generator struct {
	client llm.Client
}

// NewGenerator creates a Generator backed by the given LLM client.
func NewGenerator(client llm.Client) *Generator {
	return &Generator{client: client}
}

func compactList(items []string) string {
	if len(items) == 0 {
		return "None listed"
	}
	return strings.Join(items, ", ")
}

func orNotProvided(s string) string {
	if s == "" {
		return "Not provided"
	}
	return s
}

// StudentText renders the canonical embedding input for a student profile.
func StudentText(fullName string, sp *db.StudentProfile) string {
	gradYear := "Not provided"
	if sp.GraduationYear != 0 {
		gradYear = strconv.Itoa(sp.GraduationYear)
	}
	return strings.Join([]string{
		"Student Profile",
		"Name: " + orNotProvided(fullName),
		"University: " + orNotProvided(sp.University),
		"Major: " + orNotProvided(sp.Major),
		"Graduation: " + gradYear,
		"Skills: " + compactList(sp.Skills),
		"Bio: " + orNotProvided(sp.Bio),
	}, "\n")
}

// JobText renders the canonical embedding input for a job posting.
func JobText(job *db.Job) string {
	return strings.Join([]string{
		"Job Posting",
		"Title: " + job.Title,
		"Description: " + job.Description,
		"Requirements: " + compactList(job.Requirements),
		"Required Skills: " + compactList(job.SkillsRequired),
	}, "\n")
}

// ForStudent embeds the canonical student text.
func (g *Generator) ForStudent(ctx context.Context, fullName string, sp *db.StudentProfile) (db.Vector, error) {
	vec, err := g.client.Embed(ctx, StudentText(fullName, sp))
	if err != nil {
		return nil, fmt.Errorf("failed to embed student profile: %w", err)
	}
	return db.Vector(vec), nil
}

// ForJob embeds the canonical job text.
func (g *Generator) ForJob(ctx context.Context, job *db.Job) (db.Vector, error) {
	vec, err := g.client.Embed(ctx, JobText(job))
	if err != nil {
		return nil, fmt.Errorf("failed to embed job posting: %w", err)
	}
	return db.Vector(vec), nil
}
