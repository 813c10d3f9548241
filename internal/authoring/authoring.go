// Package authoring provides LLM-assisted helpers for drafting job
// postings: extracting requirements and skills from a free-form description
// and rewriting the description with company context.
package authoring

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/launchpadhq/launchpad/internal/db"
	"github.com/launchpadhq/launchpad/internal/llm"
)

const skillsPrompt = "You extract required skills from a job description. " +
	"Return a list of concise skill names. " +
	"Avoid duplicates and keep each item short. " +
	"Return JSON that matches the provided schema exactly."

const requirementsPrompt = "You extract job requirements from a job description. " +
	"Return a list of concise requirement statements. " +
	"Avoid duplicates and avoid including the same item as a skill. " +
	"Return JSON that matches the provided schema exactly."

const enhancePrompt = "You improve a job description for clarity and completeness. " +
	"Use the company context and job title to enrich the description. " +
	"Preserve the original intent and keep it professional. " +
	"Return JSON that matches the provided schema exactly."

// Assistant runs the job-authoring helpers through an llm.Client.
type Assistant struct {
	client llm.Client
}

// NewAssistant creates an assistant backed by the given LLM client.
func NewAssistant(client llm.Client) *Assistant {
	return &Assistant{client: client}
}

// ParseSkills extracts required skill names from a job description.
func (a *Assistant) ParseSkills(ctx context.Context, description string) ([]string, error) {
	return a.extractList(ctx, skillsPrompt, description, "skills", skillsSchema)
}

// ParseRequirements extracts requirement statements from a job description.
func (a *Assistant) ParseRequirements(ctx context.Context, description string) ([]string, error) {
	return a.extractList(ctx, requirementsPrompt, description, "requirements", requirementsSchema)
}

// EnhanceDescription rewrites a draft description using the company context
// and job title.
func (a *Assistant) EnhanceDescription(ctx context.Context, companyContext, jobTitle, description string) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"company_context": companyContext,
		"job_title":       jobTitle,
		"description":     description,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal enhance input: %w", err)
	}

	raw, err := a.client.GenerateJSON(ctx, enhancePrompt, buildPrompt(string(payload), enhanceSchema))
	if err != nil {
		return "", fmt.Errorf("enhance call failed: %w", err)
	}
	if err := validateAgainst(enhanceSchema, raw); err != nil {
		return "", err
	}

	var out struct {
		Description string `json:"description"`
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return "", fmt.Errorf("failed to parse enhance output: %w", err)
	}
	return strings.TrimSpace(out.Description), nil
}

// extractList runs one list-extraction helper and returns the trimmed,
// non-empty entries under key.
func (a *Assistant) extractList(ctx context.Context, system, description, key, schema string) ([]string, error) {
	raw, err := a.client.GenerateJSON(ctx, system, buildPrompt(description, schema))
	if err != nil {
		return nil, fmt.Errorf("%s extraction call failed: %w", key, err)
	}
	if err := validateAgainst(schema, raw); err != nil {
		return nil, err
	}

	var out map[string][]string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("failed to parse %s output: %w", key, err)
	}

	items := make([]string, 0, len(out[key]))
	for _, item := range out[key] {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items, nil
}

func buildPrompt(input, schema string) string {
	var sb strings.Builder
	sb.WriteString(input)
	sb.WriteString("\n\nRespond with JSON matching this schema:\n")
	sb.WriteString(schema)
	return sb.String()
}

// CompanyContext renders the company attributes presented to the model when
// enhancing a description. Empty fields are omitted.
func CompanyContext(c *db.Company) string {
	lines := []string{"Company Name: " + c.Name}
	if c.Description != "" {
		lines = append(lines, "Description: "+c.Description)
	}
	if c.Industry != "" {
		lines = append(lines, "Industry: "+c.Industry)
	}
	if c.CompanySize != "" {
		lines = append(lines, "Company Size: "+c.CompanySize)
	}
	if c.Location != "" {
		lines = append(lines, "Location: "+c.Location)
	}
	if c.FoundedYear != 0 {
		lines = append(lines, "Founded: "+strconv.Itoa(c.FoundedYear))
	}
	if c.Website != "" {
		lines = append(lines, "Website: "+c.Website)
	}
	return strings.Join(lines, "\n")
}
