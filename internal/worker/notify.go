package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/launchpadhq/launchpad/internal/email"
	"github.com/launchpadhq/launchpad/internal/queue"
)

// NotificationHandler consumes email tasks: it renders the template for the
// payload variant and hands it to the sender. Send failures propagate so the
// queue re-attempts; rendering is pure and cannot fail.
type NotificationHandler struct {
	sender   email.Sender
	from     string
	fromName string
	log      *zap.SugaredLogger
}

// NewNotificationHandler wires a notification consumer.
func NewNotificationHandler(sender email.Sender, from, fromName string, log *zap.SugaredLogger) *NotificationHandler {
	return &NotificationHandler{sender: sender, from: from, fromName: fromName, log: log}
}

// ProcessTask handles one email task.
func (h *NotificationHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var job queue.EmailJob
	if err := json.Unmarshal(t.Payload(), &job); err != nil {
		return fmt.Errorf("malformed email payload: %v: %w", err, asynq.SkipRetry)
	}
	if err := job.Validate(); err != nil {
		// A payload that was enqueued malformed will never become valid.
		return fmt.Errorf("invalid email payload: %v: %w", err, asynq.SkipRetry)
	}

	tmpl := h.render(job)
	to := job.Recipient()
	if err := h.sender.Send(h.from, h.fromName, to, tmpl.Subject, tmpl.HTML); err != nil {
		return fmt.Errorf("failed to send %s email to %s: %w", job.Kind, to, err)
	}
	h.log.Infow("notification sent", "kind", job.Kind, "to", to)
	return nil
}

// render maps a validated job to its template. The switch is exhaustive over
// the EmailKind variants; Validate has already rejected unknown kinds.
func (h *NotificationHandler) render(job queue.EmailJob) email.Template {
	switch job.Kind {
	case queue.EmailWelcome:
		return email.WelcomeTemplate(job.Welcome.FullName, job.Welcome.Role)
	case queue.EmailNewApplication:
		n := job.NewApplication
		return email.NewApplicationTemplate(n.CompanyName, n.ApplicantName, n.JobTitle, n.Score)
	case queue.EmailDecision:
		d := job.Decision
		return email.DecisionTemplate(d.StudentName, d.CompanyName, d.JobTitle, d.Status, d.EmailBody)
	}
	// Unreachable after Validate.
	return email.Template{}
}
