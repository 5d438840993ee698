// Package ai classifies tickets into departments with a language model.
//
// Providers return the model's answer normalized (lower-cased and trimmed);
// checking that answer against the department table is the caller's job.
package ai

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/steveyegge/triage/internal/types"
)

// Providers selectable in configuration
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// Default models per provider
const (
	// ModelHaiku is the cost-efficient Anthropic model; classification is a one-word answer
	ModelHaiku = "claude-3-5-haiku-20241022"

	// ModelGPT35Turbo matches the model the routing rubric was tuned on
	ModelGPT35Turbo = "gpt-3.5-turbo"
)

// classifyMaxTokens bounds the answer; labels are at most a few tokens
const classifyMaxTokens = 16

// Classifier maps a ticket to a department label
type Classifier interface {
	Classify(ctx context.Context, ticket string) (string, error)
}

// Func adapts a plain function to the Classifier interface
type Func func(ctx context.Context, ticket string) (string, error)

// Classify calls f
func (f Func) Classify(ctx context.Context, ticket string) (string, error) {
	return f(ctx, ticket)
}

// Config selects and configures a classifier provider
type Config struct {
	Provider string     // "anthropic" (default) or "openai"
	APIKey   string     // If empty, read from ANTHROPIC_API_KEY or OPENAI_API_KEY
	BaseURL  string     // Optional endpoint override
	Model    string     // Provider model (default per provider, TRIAGE_CLASSIFIER_MODEL overrides)
	Call     CallConfig // Timeout, circuit breaker and concurrency settings
}

// New builds the classifier named by cfg.Provider
func New(cfg Config) (Classifier, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderAnthropic:
		return NewAnthropicClassifier(cfg)
	case ProviderOpenAI:
		return NewOpenAIClassifier(cfg)
	default:
		return nil, fmt.Errorf("unknown classifier provider %q (want %s or %s)", cfg.Provider, ProviderAnthropic, ProviderOpenAI)
	}
}

// resolveModel applies the TRIAGE_CLASSIFIER_MODEL override, then the provider default
func resolveModel(configured, fallback string) string {
	if configured != "" {
		return configured
	}
	if model := os.Getenv("TRIAGE_CLASSIFIER_MODEL"); model != "" {
		return model
	}
	return fallback
}

func resolveAPIKey(configured, envVar string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	if key := os.Getenv(envVar); key != "" {
		return key, nil
	}
	return "", fmt.Errorf("%s not set", envVar)
}

// normalizeAnswer turns the raw model reply into a label candidate
func normalizeAnswer(raw string) string {
	return types.NormalizeLabel(raw)
}
