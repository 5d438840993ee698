package ai

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicClassifier classifies tickets with Claude
type AnthropicClassifier struct {
	client *anthropic.Client
	model  string
	guard  *callGuard
}

// Compile-time check that AnthropicClassifier implements Classifier
var _ Classifier = (*AnthropicClassifier)(nil)

// NewAnthropicClassifier creates a Claude-backed classifier.
// The SDK's own retries are disabled: failures surface to the caller.
func NewAnthropicClassifier(cfg Config) (*AnthropicClassifier, error) {
	apiKey, err := resolveAPIKey(cfg.APIKey, "ANTHROPIC_API_KEY")
	if err != nil {
		return nil, err
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := anthropic.NewClient(opts...)

	return &AnthropicClassifier{
		client: &client,
		model:  resolveModel(cfg.Model, ModelHaiku),
		guard:  newCallGuard(cfg.Call),
	}, nil
}

// Model returns the model used for classification
func (c *AnthropicClassifier) Model() string {
	return c.model
}

// Classify asks Claude for the department of ticket
func (c *AnthropicClassifier) Classify(ctx context.Context, ticket string) (string, error) {
	startTime := time.Now()
	prompt := ClassificationPrompt(ticket)

	var response *anthropic.Message
	err := c.guard.do(ctx, "classify", func(attemptCtx context.Context) error {
		resp, apiErr := c.client.Messages.New(attemptCtx, anthropic.MessageNewParams{
			Model:       anthropic.Model(c.model),
			MaxTokens:   classifyMaxTokens,
			Temperature: anthropic.Float(0),
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
			},
		})
		if apiErr != nil {
			return apiErr
		}
		response = resp
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API call failed: %w", err)
	}

	var sb strings.Builder
	for _, block := range response.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	log.Printf("AI classify call: input=%d tokens, output=%d tokens, duration=%v",
		response.Usage.InputTokens, response.Usage.OutputTokens, time.Since(startTime))

	return normalizeAnswer(sb.String()), nil
}
