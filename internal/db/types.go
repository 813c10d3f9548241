package db

import (
	"fmt"
	"strconv"
	"strings"
)

// Vector is a pgvector embedding value. pgx has no built-in codec for the
// vector type, so it is encoded to the text literal form "[f1,f2,...]" and
// cast to ::vector in SQL.
type Vector []float32

// String renders the pgvector text literal.
func (v Vector) String() string {
	if len(v) == 0 {
		return "[]"
	}
	var sb strings.Builder
	sb.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	sb.WriteByte(']')
	return sb.String()
}

// ParseVector parses the pgvector text literal form back into a Vector.
func ParseVector(s string) (Vector, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return nil, fmt.Errorf("malformed vector literal: %q", s)
	}
	inner := strings.TrimSpace(s[1 : len(s)-1])
	if inner == "" {
		return Vector{}, nil
	}
	parts := strings.Split(inner, ",")
	vec := make(Vector, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, fmt.Errorf("malformed vector element %q: %w", p, err)
		}
		vec = append(vec, float32(f))
	}
	return vec, nil
}

// CategoryScore is one scored dimension of an application review.
type CategoryScore struct {
	Score     int    `json:"score"`
	Reasoning string `json:"reasoning"`
}

// ScoreBreakdown is the structured result of scoring an application. It is
// stored as jsonb on the applications row.
type ScoreBreakdown struct {
	SkillsMatch           CategoryScore `json:"skillsMatch"`
	ExperienceFit         CategoryScore `json:"experienceFit"`
	EducationMatch        CategoryScore `json:"educationMatch"`
	OverallRecommendation string        `json:"overallRecommendation"`
}
