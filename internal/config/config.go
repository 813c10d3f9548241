// Package config provides environment-based configuration for the API server
// and worker processes.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds process configuration loaded from the environment.
type Config struct {
	// AppEnv selects logger mode ("dev" or "prod").
	AppEnv string

	// DatabaseURL is the PostgreSQL connection URL. Required.
	DatabaseURL string

	// RedisURL is the Redis connection URI backing the work queues. Required
	// for the worker process and for any process that enqueues work.
	RedisURL string

	// GeminiAPIKey authenticates the scoring and embedding calls. Required by
	// the worker; the API server needs it for embedding refreshes.
	GeminiAPIKey string

	// Email delivery settings. EmailAPIKey empty disables outbound email
	// (the notification worker logs and drops sends).
	EmailAPIKey   string
	EmailFrom     string
	EmailFromName string

	// Port is the HTTP listen port for the API server.
	Port int
}

// Load reads configuration from the environment. DatabaseURL and RedisURL are
// required; everything else has a default or may be empty.
func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:        envDefault("APP_ENV", "dev"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisURL:      os.Getenv("REDIS_URL"),
		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		EmailAPIKey:   os.Getenv("EMAIL_API_KEY"),
		EmailFrom:     envDefault("EMAIL_FROM", "no-reply@launchpad.jobs"),
		EmailFromName: envDefault("EMAIL_FROM_NAME", "Launchpad"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required but not set")
	}
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required but not set")
	}

	portStr := envDefault("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return nil, fmt.Errorf("invalid PORT: %q", portStr)
	}
	cfg.Port = port

	return cfg, nil
}

func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
