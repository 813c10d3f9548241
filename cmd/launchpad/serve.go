package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/launchpadhq/launchpad/internal/authoring"
	"github.com/launchpadhq/launchpad/internal/config"
	"github.com/launchpadhq/launchpad/internal/db"
	"github.com/launchpadhq/launchpad/internal/embeddings"
	"github.com/launchpadhq/launchpad/internal/llm"
	"github.com/launchpadhq/launchpad/internal/logger"
	"github.com/launchpadhq/launchpad/internal/queue"
	"github.com/launchpadhq/launchpad/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start the HTTP server that exposes the marketplace REST endpoints.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Port = servePort
	}

	log, err := logger.New(cfg.AppEnv)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	enqueuer, err := queue.NewClient(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer func() { _ = enqueuer.Close() }()

	// Without an API key the server runs fine; matched results just go
	// stale as profiles and postings change, and the posting assistance
	// endpoints report unavailability.
	var embedder *embeddings.Generator
	var assistant *authoring.Assistant
	if cfg.GeminiAPIKey != "" {
		llmClient, err := llm.NewClient(ctx, llm.DefaultConfig(), cfg.GeminiAPIKey)
		if err != nil {
			return fmt.Errorf("failed to create llm client: %w", err)
		}
		defer func() { _ = llmClient.Close() }()
		embedder = embeddings.NewGenerator(llmClient)
		assistant = authoring.NewAssistant(llmClient)
	} else {
		log.Warnw("GEMINI_API_KEY not set, embedding refresh and posting assistance disabled")
	}

	srv, err := server.New(server.Config{Port: cfg.Port}, server.Deps{
		DB:        database,
		Enqueuer:  enqueuer,
		Embedder:  embedder,
		Assistant: assistant,
		Log:       log,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}
