// Package llm provides centralized LLM configuration and client abstractions
// for structured scoring and embedding generation.
package llm

import "os"

// Provider represents an LLM provider
type Provider string

// Provider constants define supported LLM providers
const (
	// ProviderGemini is the Google Gemini provider
	ProviderGemini Provider = "gemini"
)

// Config holds the model configuration for the application
type Config struct {
	Provider       Provider
	Model          string
	EmbeddingModel string
}

// DefaultConfig returns the default configuration, honoring LLM_MODEL and
// EMBEDDING_MODEL environment overrides.
func DefaultConfig() *Config {
	cfg := &Config{
		Provider:       ProviderGemini,
		Model:          "gemini-2.5-flash",
		EmbeddingModel: "text-embedding-004",
	}
	if m := os.Getenv("LLM_MODEL"); m != "" {
		cfg.Model = m
	}
	if m := os.Getenv("EMBEDDING_MODEL"); m != "" {
		cfg.EmbeddingModel = m
	}
	return cfg
}
