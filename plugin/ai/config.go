package ai

import (
	"errors"
	"time"

	"github.com/vidyalab/vidya/internal/profile"
)

// Config represents AI provider configuration.
type Config struct {
	Enabled bool

	Provider       string // openai (or any OpenAI-compatible endpoint)
	APIKey         string
	BaseURL        string
	EmbeddingModel string

	MaxRetries int           // default: 3
	Timeout    time.Duration // default: 30s
}

// NewConfigFromProfile creates AI config from the process profile.
func NewConfigFromProfile(p *profile.Profile) *Config {
	cfg := &Config{
		Enabled:        p.IsAIEnabled(),
		Provider:       p.AIProvider,
		APIKey:         p.AIAPIKey,
		BaseURL:        p.AIBaseURL,
		EmbeddingModel: p.AIEmbeddingModel,
		MaxRetries:     3,
		Timeout:        30 * time.Second,
	}
	return cfg
}

// Validate validates the configuration.
// A disabled config is always valid: the caller degrades to "not ready"
// instead of failing startup.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Provider == "" {
		return errors.New("AI provider is required")
	}
	if c.APIKey == "" {
		return errors.New("AI API key is required")
	}
	return nil
}
