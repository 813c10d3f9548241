package queue

import (
	"fmt"

	"github.com/launchpadhq/launchpad/internal/db"
)

// EmailKind discriminates the notification variants.
type EmailKind string

// Notification kinds.
const (
	EmailWelcome        EmailKind = "welcome"
	EmailNewApplication EmailKind = "new-application"
	EmailDecision       EmailKind = "decision"
)

// EmailJob is the tagged union carried by the notifications queue. Exactly
// one variant field matching Kind is populated.
type EmailJob struct {
	Kind EmailKind `json:"kind"`

	Welcome        *WelcomeEmail        `json:"welcome,omitempty"`
	NewApplication *NewApplicationEmail `json:"new_application,omitempty"`
	Decision       *DecisionEmail       `json:"decision,omitempty"`
}

// WelcomeEmail greets a freshly registered user.
type WelcomeEmail struct {
	Email    string  `json:"email"`
	FullName string  `json:"full_name,omitempty"`
	Role     db.Role `json:"role"`
}

// NewApplicationEmail alerts a company that a scored application is ready
// for review.
type NewApplicationEmail struct {
	CompanyEmail  string `json:"company_email"`
	CompanyName   string `json:"company_name"`
	ApplicantName string `json:"applicant_name"`
	JobTitle      string `json:"job_title"`
	Score         int    `json:"score"`
}

// DecisionEmail notifies a student of an accept/reject decision. EmailBody
// empty means the built-in default template for the status is used.
type DecisionEmail struct {
	StudentEmail string               `json:"student_email"`
	StudentName  string               `json:"student_name"`
	JobTitle     string               `json:"job_title"`
	CompanyName  string               `json:"company_name"`
	Status       db.ApplicationStatus `json:"status"`
	EmailBody    string               `json:"email_body,omitempty"`
}

// NewWelcomeJob builds a welcome notification.
func NewWelcomeJob(email, fullName string, role db.Role) EmailJob {
	return EmailJob{Kind: EmailWelcome, Welcome: &WelcomeEmail{Email: email, FullName: fullName, Role: role}}
}

// NewApplicationJob builds a new-application alert.
func NewApplicationJob(n NewApplicationEmail) EmailJob {
	return EmailJob{Kind: EmailNewApplication, NewApplication: &n}
}

// NewDecisionJob builds a decision notification.
func NewDecisionJob(d DecisionEmail) EmailJob {
	return EmailJob{Kind: EmailDecision, Decision: &d}
}

// Recipient returns the destination address of the job's active variant.
func (j EmailJob) Recipient() string {
	switch j.Kind {
	case EmailWelcome:
		if j.Welcome != nil {
			return j.Welcome.Email
		}
	case EmailNewApplication:
		if j.NewApplication != nil {
			return j.NewApplication.CompanyEmail
		}
	case EmailDecision:
		if j.Decision != nil {
			return j.Decision.StudentEmail
		}
	}
	return ""
}

// Validate checks that exactly the variant named by Kind is populated and
// has a recipient.
func (j EmailJob) Validate() error {
	switch j.Kind {
	case EmailWelcome:
		if j.Welcome == nil {
			return fmt.Errorf("welcome email job missing payload")
		}
		if j.Welcome.Email == "" {
			return fmt.Errorf("welcome email job missing recipient")
		}
	case EmailNewApplication:
		if j.NewApplication == nil {
			return fmt.Errorf("new-application email job missing payload")
		}
		if j.NewApplication.CompanyEmail == "" {
			return fmt.Errorf("new-application email job missing recipient")
		}
	case EmailDecision:
		if j.Decision == nil {
			return fmt.Errorf("decision email job missing payload")
		}
		if j.Decision.StudentEmail == "" {
			return fmt.Errorf("decision email job missing recipient")
		}
		if j.Decision.Status != db.StatusAccepted && j.Decision.Status != db.StatusRejected {
			return fmt.Errorf("decision email job has non-terminal status %q", j.Decision.Status)
		}
	default:
		return fmt.Errorf("unknown email job kind %q", j.Kind)
	}
	return nil
}
