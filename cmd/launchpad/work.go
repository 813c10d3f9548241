package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/launchpadhq/launchpad/internal/config"
	"github.com/launchpadhq/launchpad/internal/db"
	"github.com/launchpadhq/launchpad/internal/email"
	"github.com/launchpadhq/launchpad/internal/llm"
	"github.com/launchpadhq/launchpad/internal/logger"
	"github.com/launchpadhq/launchpad/internal/queue"
	"github.com/launchpadhq/launchpad/internal/scoring"
	"github.com/launchpadhq/launchpad/internal/worker"
)

var workCmd = &cobra.Command{
	Use:   "work",
	Short: "Start the background worker",
	Long:  `Start the background worker that scores applications and delivers email notifications.`,
	RunE:  runWork,
}

func init() {
	rootCmd.AddCommand(workCmd)
}

func runWork(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}

	log, err := logger.New(cfg.AppEnv)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	llmClient, err := llm.NewClient(ctx, llm.DefaultConfig(), cfg.GeminiAPIKey)
	if err != nil {
		return fmt.Errorf("failed to create llm client: %w", err)
	}
	defer func() { _ = llmClient.Close() }()

	// The scoring worker enqueues its own follow-up notifications.
	enqueuer, err := queue.NewClient(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer func() { _ = enqueuer.Close() }()

	var sender email.Sender = email.Discard
	if cfg.EmailAPIKey != "" {
		sender = email.NewClient(cfg.EmailAPIKey)
	} else {
		log.Warnw("EMAIL_API_KEY not set, outbound email disabled")
	}

	scoringHandler := worker.NewScoringHandler(database, scoring.NewLLMScorer(llmClient), enqueuer, log)
	notifyHandler := worker.NewNotificationHandler(sender, cfg.EmailFrom, cfg.EmailFromName, log)

	runner, err := worker.NewRunner(cfg.RedisURL, scoringHandler, notifyHandler, log)
	if err != nil {
		return fmt.Errorf("failed to create worker: %w", err)
	}

	log.Infow("worker starting")
	return runner.Run(ctx)
}
