package worker

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/launchpadhq/launchpad/internal/queue"
)

// Concurrency bounds, one worker pool per queue. Scoring is LLM-bound and
// kept narrow; notifications are cheap sends.
const (
	scoringConcurrency      = 2
	notificationConcurrency = 5
)

// Runner owns the two queue consumers. Each queue gets its own asynq server
// so its concurrency bound is independent of the other's.
type Runner struct {
	scoringSrv *asynq.Server
	notifySrv  *asynq.Server
	scoringMux *asynq.ServeMux
	notifyMux  *asynq.ServeMux
	log        *zap.SugaredLogger
}

// NewRunner builds a worker runner consuming from the Redis instance at
// redisURL.
func NewRunner(redisURL string, scoringHandler *ScoringHandler, notifyHandler *NotificationHandler, log *zap.SugaredLogger) (*Runner, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URI: %w", err)
	}

	scoringSrv := asynq.NewServer(opt, asynq.Config{
		Concurrency: scoringConcurrency,
		Queues:      map[string]int{queue.QueueScoring: 1},
		Logger:      &asynqLogger{log: log.With("queue", queue.QueueScoring)},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			logTaskFailure(ctx, task, err, log)
		}),
	})
	scoringMux := asynq.NewServeMux()
	scoringMux.HandleFunc(queue.TypeScoreApplication, scoringHandler.ProcessTask)

	notifySrv := asynq.NewServer(opt, asynq.Config{
		Concurrency: notificationConcurrency,
		Queues:      map[string]int{queue.QueueNotifications: 1},
		Logger:      &asynqLogger{log: log.With("queue", queue.QueueNotifications)},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			logTaskFailure(ctx, task, err, log)
		}),
	})
	notifyMux := asynq.NewServeMux()
	notifyMux.HandleFunc(queue.TypeSendEmail, notifyHandler.ProcessTask)

	return &Runner{
		scoringSrv: scoringSrv,
		notifySrv:  notifySrv,
		scoringMux: scoringMux,
		notifyMux:  notifyMux,
		log:        log,
	}, nil
}

// Run starts both consumers and blocks until ctx is cancelled or a server
// fails to start. Shutdown waits for in-flight tasks.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.scoringSrv.Start(r.scoringMux); err != nil {
		return fmt.Errorf("failed to start scoring consumer: %w", err)
	}
	if err := r.notifySrv.Start(r.notifyMux); err != nil {
		r.scoringSrv.Shutdown()
		return fmt.Errorf("failed to start notification consumer: %w", err)
	}
	r.log.Infow("worker started",
		"scoring_concurrency", scoringConcurrency,
		"notification_concurrency", notificationConcurrency)

	<-ctx.Done()
	r.log.Infow("worker shutting down")

	g := new(errgroup.Group)
	g.Go(func() error { r.scoringSrv.Shutdown(); return nil })
	g.Go(func() error { r.notifySrv.Shutdown(); return nil })
	return g.Wait()
}

// logTaskFailure records every failed attempt and flags retry exhaustion: a
// scoring task out of retries leaves its application stuck in 'scoring', and
// operators find those through this log line.
func logTaskFailure(ctx context.Context, task *asynq.Task, err error, log *zap.SugaredLogger) {
	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)
	if retried >= maxRetry {
		log.Errorw("task failed permanently, retries exhausted",
			"type", task.Type(), "payload", string(task.Payload()), "error", err)
		return
	}
	log.Warnw("task attempt failed, will retry",
		"type", task.Type(), "retried", retried, "max_retry", maxRetry, "error", err)
}

// asynqLogger adapts the zap sugared logger to asynq's logging interface.
type asynqLogger struct {
	log *zap.SugaredLogger
}

func (l *asynqLogger) Debug(args ...interface{}) { l.log.Debug(args...) }
func (l *asynqLogger) Info(args ...interface{})  { l.log.Info(args...) }
func (l *asynqLogger) Warn(args ...interface{})  { l.log.Warn(args...) }
func (l *asynqLogger) Error(args ...interface{}) { l.log.Error(args...) }
func (l *asynqLogger) Fatal(args ...interface{}) { l.log.Fatal(args...) }
