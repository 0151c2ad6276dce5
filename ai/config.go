// Package ai wires the boardroom AI core from the server profile.
package ai

import (
	"errors"
	"time"

	"github.com/hrygo/boardroom/ai/core/llm"
	"github.com/hrygo/boardroom/internal/profile"
)

// Config represents AI configuration.
type Config struct {
	LLM          llm.Config
	Orchestrator OrchestratorConfig
	Session      SessionConfig
	// PromptsDir holds an optional prompts.yaml override. Empty uses the
	// built-in catalogue.
	PromptsDir string
}

// OrchestratorConfig represents turn orchestration configuration.
type OrchestratorConfig struct {
	ActivationDwell  time.Duration
	ImageConcurrency int
}

// SessionConfig represents session store configuration.
type SessionConfig struct {
	Capacity    int
	IdleTimeout time.Duration
}

// NewConfigFromProfile creates AI config from profile.
func NewConfigFromProfile(p *profile.Profile) *Config {
	cfg := &Config{
		PromptsDir: p.PromptsDir,
	}

	cfg.LLM = llm.Config{
		Provider:        p.LLMProvider,
		Model:           p.LLMModel,
		StructuredModel: p.LLMStructuredModel,
		ImageModel:      p.LLMImageModel,
		APIKey:          p.LLMAPIKey,
		BaseURL:         p.LLMBaseURL,
		Temperature:     0.7,
		Timeout:         p.LLMTimeout,
		ImageTimeout:    p.LLMImageTimeout,
		ImageRPS:        p.ImageRPS,
	}

	cfg.Orchestrator = OrchestratorConfig{
		ActivationDwell:  time.Duration(p.ActivationDwellMs) * time.Millisecond,
		ImageConcurrency: p.ImageConcurrency,
	}

	cfg.Session = SessionConfig{
		Capacity:    p.SessionCapacity,
		IdleTimeout: time.Duration(p.SessionIdleMins) * time.Minute,
	}

	return cfg
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.LLM.Provider == "" {
		return errors.New("LLM provider is required")
	}

	if c.LLM.Provider != "ollama" && c.LLM.APIKey == "" {
		return errors.New("LLM API key is required")
	}

	if c.LLM.Model == "" {
		return errors.New("LLM model is required")
	}

	if c.Orchestrator.ActivationDwell < 0 {
		return errors.New("activation dwell must not be negative")
	}

	return nil
}
