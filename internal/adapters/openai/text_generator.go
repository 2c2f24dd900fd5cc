package openai

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"mailgate/internal/config"
)

// Client is a TextGenerator backed by the OpenAI chat completions API.
type Client struct {
	client      *openai.Client
	modelName   string
	maxTokens   int
	temperature float32
	logger      *zap.Logger
}

// NewClient creates a new OpenAI client.
func NewClient(cfg config.OpenAIConfig, logger *zap.Logger) *Client {
	return &Client{
		client:      openai.NewClient(cfg.APIKey),
		modelName:   cfg.ModelName,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		logger:      logger,
	}
}

// Generate sends the system instruction and user payload as a two-message
// chat completion and returns the raw response text. The json_object response
// format keeps the model from wrapping the object in prose.
func (c *Client) Generate(ctx context.Context, systemInstruction string, userPayload string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemInstruction,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: userPayload,
			},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion with OpenAI: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from OpenAI")
	}

	return resp.Choices[0].Message.Content, nil
}
