// Package email renders notification templates and delivers them through a
// transactional email API.
package email

import (
	"fmt"
	"html"
	"strings"

	"github.com/launchpadhq/launchpad/internal/db"
)

// Template is a rendered email ready to send.
type Template struct {
	Subject string
	HTML    string
}

// DefaultAcceptanceBody is the fallback decision body when a company has not
// customized its acceptance email.
const DefaultAcceptanceBody = "Congratulations! We are pleased to inform you that you have been selected.\n" +
	"We were impressed by your qualifications and believe you will be a great addition to our team.\n" +
	"\n" +
	"Our team will reach out shortly with next steps regarding onboarding and start date details."

// DefaultRejectionBody is the fallback decision body when a company has not
// customized its rejection email.
const DefaultRejectionBody = "Thank you for your interest in this position.\n" +
	"After careful consideration, we have decided to move forward with other candidates whose experience more closely matches our current needs.\n" +
	"\n" +
	"We appreciate the time you invested in applying and encourage you to apply for future opportunities that align with your skills."

// formatMultiline escapes the text and converts newlines to <br /> tags.
func formatMultiline(value string) string {
	escaped := html.EscapeString(value)
	return strings.ReplaceAll(escaped, "\n", "<br />")
}

func wrapEmail(bodyHTML string) string {
	return `<div style="font-family: Arial, sans-serif; color: #111; line-height: 1.5;">` + bodyHTML + `</div>`
}

// WelcomeTemplate renders the new-user greeting.
func WelcomeTemplate(fullName string, role db.Role) Template {
	displayName := strings.TrimSpace(fullName)
	if displayName == "" {
		displayName = "there"
	}
	roleLine := "You can now post roles and review applicants."
	if role == db.RoleStudent {
		roleLine = "You can now complete your profile and apply for roles."
	}

	htmlBody := wrapEmail(fmt.Sprintf(
		`<p>Hi %s,</p><p>Welcome to Launchpad.</p><p>%s</p><p>Thanks,<br />The Launchpad Team</p>`,
		html.EscapeString(displayName), html.EscapeString(roleLine)))

	return Template{
		Subject: "Welcome to Launchpad",
		HTML:    htmlBody,
	}
}

// NewApplicationTemplate renders the company-facing alert for a freshly
// scored application.
func NewApplicationTemplate(companyName, applicantName, jobTitle string, score int) Template {
	htmlBody := wrapEmail(fmt.Sprintf(
		`<p>Hi %s,</p><p>You have a new application ready for review.</p>`+
			`<p><strong>Applicant:</strong> %s</p>`+
			`<p><strong>Role:</strong> %s</p>`+
			`<p><strong>Score:</strong> %d</p>`+
			`<p>Log in to review the full details.</p>`,
		html.EscapeString(companyName), html.EscapeString(applicantName),
		html.EscapeString(jobTitle), score))

	return Template{
		Subject: fmt.Sprintf("New application for %s", jobTitle),
		HTML:    htmlBody,
	}
}

// DecisionTemplate renders the student-facing decision notice. An empty
// emailBody falls back to the built-in default for the status.
func DecisionTemplate(studentName, companyName, jobTitle string, status db.ApplicationStatus, emailBody string) Template {
	bodyText := strings.TrimSpace(emailBody)
	if bodyText == "" {
		if status == db.StatusAccepted {
			bodyText = DefaultAcceptanceBody
		} else {
			bodyText = DefaultRejectionBody
		}
	}

	htmlBody := wrapEmail(fmt.Sprintf(
		`<p>Hi %s,</p><p>%s has made a decision on your application for %s.</p><p>%s</p><p>Thanks,<br />The %s Team</p>`,
		html.EscapeString(studentName), html.EscapeString(companyName),
		html.EscapeString(jobTitle), formatMultiline(bodyText), html.EscapeString(companyName)))

	return Template{
		Subject: fmt.Sprintf("Update on your application for %s", jobTitle),
		HTML:    htmlBody,
	}
}
