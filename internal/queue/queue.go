// Package queue defines the durable work queues decoupling request handling
// from background processing. Tasks are delivered at-least-once over Redis
// with bounded retries and exponential backoff.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Task type identifiers.
const (
	TypeScoreApplication = "application:score"
	TypeSendEmail        = "email:send"
)

// Queue names. Each queue gets its own worker pool with an independent
// concurrency bound.
const (
	QueueScoring       = "scoring"
	QueueNotifications = "notifications"
)

// Retry budgets. A scoring task that exhausts its retries leaves the
// application stuck in 'scoring'; a notification task that exhausts its
// retries is dropped.
const (
	scoringMaxRetry      = 5
	notificationMaxRetry = 3
)

// ScoringPayload is the unit of scoring work, keyed by application id.
type ScoringPayload struct {
	ApplicationID uuid.UUID `json:"application_id"`
}

// Enqueuer is the producer side of the queues. The API server and the
// scoring worker (which enqueues notifications) both depend on this
// interface rather than the concrete client.
type Enqueuer interface {
	EnqueueScoring(ctx context.Context, applicationID uuid.UUID) error
	EnqueueEmail(ctx context.Context, job EmailJob) error
}

// Client is an explicitly constructed queue producer with a lifecycle owned
// by the process that creates it.
type Client struct {
	inner *asynq.Client
}

// NewClient connects a queue producer to the Redis instance at redisURL.
func NewClient(redisURL string) (*Client, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URI: %w", err)
	}
	return &Client{inner: asynq.NewClient(opt)}, nil
}

// Close releases the client's Redis connections.
func (c *Client) Close() error {
	return c.inner.Close()
}

// EnqueueScoring places a scoring task for the application on the scoring
// queue. Callers must only invoke this after the application row is durably
// created.
func (c *Client) EnqueueScoring(ctx context.Context, applicationID uuid.UUID) error {
	payload, err := json.Marshal(ScoringPayload{ApplicationID: applicationID})
	if err != nil {
		return fmt.Errorf("failed to marshal scoring payload: %w", err)
	}
	task := asynq.NewTask(TypeScoreApplication, payload)
	_, err = c.inner.EnqueueContext(ctx, task,
		asynq.Queue(QueueScoring),
		asynq.MaxRetry(scoringMaxRetry),
		asynq.Timeout(2*time.Minute),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue scoring task: %w", err)
	}
	return nil
}

// EnqueueEmail places a notification task on the notifications queue.
func (c *Client) EnqueueEmail(ctx context.Context, job EmailJob) error {
	if err := job.Validate(); err != nil {
		return err
	}
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal email payload: %w", err)
	}
	task := asynq.NewTask(TypeSendEmail, payload)
	_, err = c.inner.EnqueueContext(ctx, task,
		asynq.Queue(QueueNotifications),
		asynq.MaxRetry(notificationMaxRetry),
		asynq.Timeout(30*time.Second),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue email task: %w", err)
	}
	return nil
}
