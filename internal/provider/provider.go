// Package provider implements the optional direct-API generation mode.
//
// Instead of shelling out to an agent, next can send the merged prompt
// straight to a hosted model. Every failure here is recoverable: callers
// fall back to writing the prompt to a file for the user to run by hand.
//
// Key types:
//   - [Generator] - Interface implemented by every provider
//   - [MockGenerator] - Test implementation with configurable responses
package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"aisdlc/internal/config"
)

// Sentinel errors for provider construction and calls.
var (
	// ErrAPIKeyMissing indicates the configured credential variable is unset.
	ErrAPIKeyMissing = errors.New("API key not set")

	// ErrUnsupportedProvider indicates an unknown or manual provider name.
	ErrUnsupportedProvider = errors.New("unsupported provider")

	// ErrModelMissing indicates no model was configured.
	ErrModelMissing = errors.New("model not configured")

	// ErrEmptyResponse indicates the provider returned no text.
	ErrEmptyResponse = errors.New("provider returned no text")
)

// Request is one generation call.
type Request struct {
	Prompt string

	// Model overrides the configured model when non-empty.
	Model string
}

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
	Name() string
}

// Getenv looks up an environment variable.
type Getenv func(key string) string

// New builds the [Generator] selected by cfg.
//
// The credential is read from the variable named by APIKeyEnvVar; ollama
// needs none. Returns [ErrUnsupportedProvider], [ErrAPIKeyMissing] or
// [ErrModelMissing] when the configuration cannot produce a client.
func New(cfg config.AIProviderConfig, getenv Getenv) (Generator, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w for %s", ErrModelMissing, cfg.Name)
	}

	var apiKey string
	if cfg.Name != config.ProviderOllama {
		if cfg.APIKeyEnvVar == "" {
			return nil, fmt.Errorf("%w: ai_provider.api_key_env_var is empty", ErrAPIKeyMissing)
		}
		apiKey = strings.TrimSpace(getenv(cfg.APIKeyEnvVar))
		if apiKey == "" {
			return nil, fmt.Errorf("%w: environment variable %s is empty", ErrAPIKeyMissing, cfg.APIKeyEnvVar)
		}
	}

	switch cfg.Name {
	case config.ProviderAnthropic:
		return NewAnthropic(apiKey, cfg.Model, cfg.MaxTokens), nil
	case config.ProviderOpenAI:
		return NewOpenAI(apiKey, cfg.Model, cfg.MaxTokens), nil
	case config.ProviderGemini:
		return NewGemini(apiKey, cfg.Model, cfg.MaxTokens), nil
	case config.ProviderOllama:
		return NewOllama(cfg.Host, cfg.Model, cfg.MaxTokens), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, cfg.Name)
	}
}

func pickModel(override, fallback string) string {
	if override != "" {
		return override
	}
	return fallback
}

func nonEmpty(name, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%s: %w", name, ErrEmptyResponse)
	}
	return text, nil
}
