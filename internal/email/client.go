package email

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Sender delivers a rendered email. Implementations must return an error on
// delivery failure so the queue's retry policy can re-attempt.
type Sender interface {
	Send(from, fromName, to, subject, htmlBody string) error
}

// Address is a named email address in the transactional API's wire format.
type Address struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

type message struct {
	Sender      Address   `json:"sender"`
	To          []Address `json:"to"`
	Subject     string    `json:"subject"`
	HTMLContent string    `json:"htmlContent"`
}

// Client sends email through a Brevo-compatible transactional HTTP API.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewClient creates an email client authenticated with apiKey.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: "https://api.brevo.com",
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// Send delivers one HTML email.
func (c *Client) Send(from, fromName, to, subject, htmlBody string) error {
	msg := message{
		Sender:      Address{Name: fromName, Email: from},
		To:          []Address{{Email: to}},
		Subject:     subject,
		HTMLContent: htmlBody,
	}
	reqData, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal email message: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/v3/smtp/email", bytes.NewReader(reqData))
	if err != nil {
		return fmt.Errorf("failed to build email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.apiKey)

	res, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return fmt.Errorf("email API returned status %d: %s", res.StatusCode, string(body))
	}
	return nil
}

// Discard is a Sender that accepts every message without delivering it.
// Used when no email API key is configured, typically local development.
var Discard Sender = discardSender{}

type discardSender struct{}

func (discardSender) Send(_, _, _, _, _ string) error { return nil }
