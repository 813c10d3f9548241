// Package scoring evaluates a student application against a job posting via
// LLM structured extraction, producing three category sub-scores and an
// overall recommendation.
package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/launchpadhq/launchpad/internal/db"
	"github.com/launchpadhq/launchpad/internal/llm"
)

// StudentInput carries the applicant-side attributes presented to the model.
type StudentInput struct {
	FullName       string   `json:"fullName,omitempty"`
	Email          string   `json:"email,omitempty"`
	University     string   `json:"university,omitempty"`
	Major          string   `json:"major,omitempty"`
	GraduationYear int      `json:"graduationYear,omitempty"`
	Bio            string   `json:"bio,omitempty"`
	Skills         []string `json:"skills,omitempty"`
	LinkedinURL    string   `json:"linkedinUrl,omitempty"`
	GithubURL      string   `json:"githubUrl,omitempty"`
	PortfolioURL   string   `json:"portfolioUrl,omitempty"`
	CoverLetter    string   `json:"coverLetter,omitempty"`
}

// JobInput carries the posting-side attributes presented to the model.
type JobInput struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Requirements   []string `json:"requirements,omitempty"`
	SkillsRequired []string `json:"skillsRequired,omitempty"`
	CompanyName    string   `json:"companyName,omitempty"`
}

// Result is a validated scoring outcome.
type Result struct {
	Breakdown    db.ScoreBreakdown
	OverallScore int
}

// Scorer produces a validated score for a student/job pair.
type Scorer interface {
	Score(ctx context.Context, student StudentInput, job JobInput) (*Result, error)
}

const systemPrompt = "You are an AI matching assistant for a student-to-company platform. " +
	"Score the candidate against the job posting. " +
	"Return JSON that matches the provided schema exactly. " +
	"Scores must be integers between 0 and 100. " +
	"Reasoning should be 1-3 concise sentences per category."

// LLMScorer scores applications through an llm.Client.
type LLMScorer struct {
	client llm.Client
}

// NewLLMScorer creates a scorer backed by the given LLM client.
func NewLLMScorer(client llm.Client) *LLMScorer {
	return &LLMScorer{client: client}
}

// Score sends the pair to the model and validates the structured response.
func (s *LLMScorer) Score(ctx context.Context, student StudentInput, job JobInput) (*Result, error) {
	payload, err := json.Marshal(map[string]any{
		"student": student,
		"job":     job,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal scoring input: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("Score this application. Candidate and job posting:\n")
	sb.Write(payload)
	sb.WriteString("\n\nRespond with JSON matching this schema:\n")
	sb.WriteString(breakdownSchema)

	raw, err := s.client.GenerateJSON(ctx, systemPrompt, sb.String())
	if err != nil {
		return nil, &CapabilityError{Message: "scoring call failed", Cause: err}
	}

	return ParseResult(raw)
}

// ParseResult validates raw model output against the breakdown schema and
// computes the overall score. Schema-invalid output is an error; the caller's
// retry policy decides what happens next.
func ParseResult(raw string) (*Result, error) {
	if err := validateBreakdownJSON(raw); err != nil {
		return nil, err
	}

	var breakdown db.ScoreBreakdown
	if err := json.Unmarshal([]byte(raw), &breakdown); err != nil {
		return nil, &InvalidOutputError{Message: "failed to parse score breakdown JSON", Cause: err}
	}

	return &Result{
		Breakdown:    breakdown,
		OverallScore: OverallScore(breakdown),
	}, nil
}

// OverallScore is the mean of the three sub-scores rounded half away from
// zero, e.g. {80, 70, 90} -> 80 and {50, 50, 51} -> 50 while {50, 51, 51} -> 51.
func OverallScore(b db.ScoreBreakdown) int {
	sum := b.SkillsMatch.Score + b.ExperienceFit.Score + b.EducationMatch.Score
	return int(math.Round(float64(sum) / 3.0))
}
