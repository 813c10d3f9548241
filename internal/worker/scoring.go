// Package worker hosts the background consumers of the scoring and
// notification queues.
package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/launchpadhq/launchpad/internal/db"
	"github.com/launchpadhq/launchpad/internal/queue"
	"github.com/launchpadhq/launchpad/internal/scoring"
)

// ScoringStore is the persistence surface the scoring consumer needs.
type ScoringStore interface {
	GetApplication(ctx context.Context, id uuid.UUID) (*db.Application, error)
	GetJobScoringInfo(ctx context.Context, jobID uuid.UUID) (*db.JobScoringInfo, error)
	GetStudentScoringInfo(ctx context.Context, studentID uuid.UUID) (*db.StudentScoringInfo, error)
	CompleteScoring(ctx context.Context, id uuid.UUID, score int, breakdown *db.ScoreBreakdown) error
}

// ScoringHandler consumes scoring tasks: it assembles the student/job
// context, invokes the scoring capability and records the result. The only
// transition it ever performs is scoring -> reviewing.
type ScoringHandler struct {
	store    ScoringStore
	scorer   scoring.Scorer
	enqueuer queue.Enqueuer
	log      *zap.SugaredLogger
}

// NewScoringHandler wires a scoring consumer.
func NewScoringHandler(store ScoringStore, scorer scoring.Scorer, enqueuer queue.Enqueuer, log *zap.SugaredLogger) *ScoringHandler {
	return &ScoringHandler{store: store, scorer: scorer, enqueuer: enqueuer, log: log}
}

// ProcessTask handles one scoring task. Missing rows are logged skips (the
// task succeeds: retrying cannot resurrect a deleted row). Capability and
// persistence failures are returned so the queue re-attempts with backoff.
func (h *ScoringHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.ScoringPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("malformed scoring payload: %v: %w", err, asynq.SkipRetry)
	}
	log := h.log.With("application_id", payload.ApplicationID)

	app, err := h.store.GetApplication(ctx, payload.ApplicationID)
	if err != nil {
		return fmt.Errorf("failed to load application: %w", err)
	}
	if app == nil {
		log.Infow("skipping scoring task, application no longer exists")
		return nil
	}

	job, err := h.store.GetJobScoringInfo(ctx, app.JobID)
	if err != nil {
		return fmt.Errorf("failed to load job context: %w", err)
	}
	if job == nil {
		log.Infow("skipping scoring task, job no longer exists", "job_id", app.JobID)
		return nil
	}

	student, err := h.store.GetStudentScoringInfo(ctx, app.StudentID)
	if err != nil {
		return fmt.Errorf("failed to load student context: %w", err)
	}
	if student == nil {
		log.Infow("skipping scoring task, student profile no longer exists", "student_id", app.StudentID)
		return nil
	}

	result, err := h.scorer.Score(ctx,
		scoring.StudentInput{
			FullName:       student.FullName,
			Email:          student.Email,
			University:     student.University,
			Major:          student.Major,
			GraduationYear: student.GraduationYear,
			Bio:            student.Bio,
			Skills:         student.Skills,
			LinkedinURL:    student.LinkedinURL,
			GithubURL:      student.GithubURL,
			PortfolioURL:   student.PortfolioURL,
			CoverLetter:    app.CoverLetter,
		},
		scoring.JobInput{
			Title:          job.Title,
			Description:    job.Description,
			Requirements:   job.Requirements,
			SkillsRequired: job.SkillsRequired,
			CompanyName:    job.CompanyName,
		})
	if err != nil {
		return fmt.Errorf("scoring attempt failed: %w", err)
	}

	if err := h.store.CompleteScoring(ctx, app.ID, result.OverallScore, &result.Breakdown); err != nil {
		return fmt.Errorf("failed to persist scoring result: %w", err)
	}
	log.Infow("application scored", "score", result.OverallScore)

	// The score is committed; alerting the company is best-effort and must
	// never fail the task.
	if job.OwnerEmail == "" {
		log.Warnw("company owner has no contact email, skipping new-application alert")
		return nil
	}
	alert := queue.NewApplicationJob(queue.NewApplicationEmail{
		CompanyEmail:  job.OwnerEmail,
		CompanyName:   job.CompanyName,
		ApplicantName: student.FullName,
		JobTitle:      job.Title,
		Score:         result.OverallScore,
	})
	if err := h.enqueuer.EnqueueEmail(ctx, alert); err != nil {
		log.Errorw("failed to enqueue new-application alert", "error", err)
	}
	return nil
}
