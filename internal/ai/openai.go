package ai

import (
	"context"
	"fmt"
	"log"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClassifier classifies tickets with an OpenAI chat model
type OpenAIClassifier struct {
	client *openai.Client
	model  string
	guard  *callGuard
}

// Compile-time check that OpenAIClassifier implements Classifier
var _ Classifier = (*OpenAIClassifier)(nil)

// NewOpenAIClassifier creates an OpenAI-backed classifier
func NewOpenAIClassifier(cfg Config) (*OpenAIClassifier, error) {
	apiKey, err := resolveAPIKey(cfg.APIKey, "OPENAI_API_KEY")
	if err != nil {
		return nil, err
	}

	clientCfg := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAIClassifier{
		client: openai.NewClientWithConfig(clientCfg),
		model:  resolveModel(cfg.Model, ModelGPT35Turbo),
		guard:  newCallGuard(cfg.Call),
	}, nil
}

// Model returns the model used for classification
func (c *OpenAIClassifier) Model() string {
	return c.model
}

// Classify asks the chat model for the department of ticket
func (c *OpenAIClassifier) Classify(ctx context.Context, ticket string) (string, error) {
	startTime := time.Now()
	prompt := ClassificationPrompt(ticket)

	var resp openai.ChatCompletionResponse
	err := c.guard.do(ctx, "classify", func(attemptCtx context.Context) error {
		var apiErr error
		resp, apiErr = c.client.CreateChatCompletion(attemptCtx, openai.ChatCompletionRequest{
			Model:       c.model,
			MaxTokens:   classifyMaxTokens,
			Temperature: 0,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
		})
		return apiErr
	})
	if err != nil {
		return "", fmt.Errorf("openai API call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai API returned no choices")
	}

	log.Printf("AI classify call: input=%d tokens, output=%d tokens, duration=%v",
		resp.Usage.PromptTokens, resp.Usage.CompletionTokens, time.Since(startTime))

	return normalizeAnswer(resp.Choices[0].Message.Content), nil
}
