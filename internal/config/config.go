// Package config provides configuration loading for ragd.
//
// Configuration is loaded from a YAML file with environment variable
// overrides and hardcoded defaults, in decreasing precedence.
package config

import (
	"errors"
	"fmt"
)

// Config holds the complete ragd configuration.
type Config struct {
	Logging       LoggingConfig       `koanf:"logging"`
	KnowledgeBase KnowledgeBaseConfig `koanf:"knowledgebase"`
	Chunking      ChunkingConfig      `koanf:"chunking"`
	Index         IndexConfig         `koanf:"index"`
	Retrieval     RetrievalConfig     `koanf:"retrieval"`
	Embeddings    EmbeddingsConfig    `koanf:"embeddings"`
	Generation    GenerationConfig    `koanf:"generation"`
}

// LoggingConfig holds structured logging configuration.
type LoggingConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn, error
	Format string `koanf:"format"` // json or console
}

// KnowledgeBaseConfig holds document source configuration.
type KnowledgeBaseConfig struct {
	Root string `koanf:"root"`
	Glob string `koanf:"glob"`
}

// ChunkingConfig holds document chunking parameters.
type ChunkingConfig struct {
	Size    int `koanf:"size"`
	Overlap int `koanf:"overlap"`
}

// IndexConfig holds vector index configuration.
type IndexConfig struct {
	Path      string `koanf:"path"`
	Dimension int    `koanf:"dimension"`
}

// RetrievalConfig holds query orchestration parameters.
type RetrievalConfig struct {
	TopK            int      `koanf:"top_k"`
	ContextBudget   int      `koanf:"context_budget"`
	HistoryBudget   int      `koanf:"history_budget"`
	SystemPrompt    string   `koanf:"system_prompt"`
	ProviderTimeout Duration `koanf:"provider_timeout"`
}

// EmbeddingsConfig holds embedding provider configuration.
type EmbeddingsConfig struct {
	BaseURL string `koanf:"base_url"`
	Model   string `koanf:"model"`
}

// GenerationConfig holds generation provider configuration.
type GenerationConfig struct {
	BaseURL     string  `koanf:"base_url"`
	Model       string  `koanf:"model"`
	APIKey      Secret  `koanf:"api_key"`
	MaxTokens   int     `koanf:"max_tokens"`
	Temperature float64 `koanf:"temperature"`
	RateLimit   float64 `koanf:"rate_limit"`
	Burst       int     `koanf:"burst"`
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging level: %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid logging format: %q", c.Logging.Format)
	}

	if c.Chunking.Size < 1 {
		return fmt.Errorf("chunking size must be at least 1, got %d", c.Chunking.Size)
	}
	if c.Chunking.Overlap < 0 {
		return fmt.Errorf("chunking overlap must not be negative, got %d", c.Chunking.Overlap)
	}
	if c.Chunking.Overlap >= c.Chunking.Size {
		return fmt.Errorf("chunking overlap %d must be smaller than size %d", c.Chunking.Overlap, c.Chunking.Size)
	}

	if c.Index.Dimension < 1 {
		return fmt.Errorf("index dimension must be at least 1, got %d", c.Index.Dimension)
	}
	if c.Index.Path == "" {
		return errors.New("index path is required")
	}

	if c.Retrieval.TopK < 1 {
		return fmt.Errorf("retrieval top_k must be at least 1, got %d", c.Retrieval.TopK)
	}
	if c.Retrieval.ContextBudget < 1 {
		return fmt.Errorf("retrieval context_budget must be at least 1, got %d", c.Retrieval.ContextBudget)
	}
	if c.Retrieval.HistoryBudget < 0 {
		return fmt.Errorf("retrieval history_budget must not be negative, got %d", c.Retrieval.HistoryBudget)
	}

	if c.Embeddings.BaseURL == "" {
		return errors.New("embeddings base_url is required")
	}
	if c.Generation.BaseURL == "" {
		return errors.New("generation base_url is required")
	}
	if c.Generation.Model == "" {
		return errors.New("generation model is required")
	}

	return nil
}
