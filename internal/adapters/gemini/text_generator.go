package gemini

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"mailgate/internal/config"
)

// Client is a TextGenerator backed by Google Gemini.
type Client struct {
	client      *genai.Client
	modelName   string
	maxTokens   int
	temperature float32
	topP        float32
	logger      *zap.Logger
}

// NewClient creates a new Gemini client.
func NewClient(ctx context.Context, cfg config.GeminiConfig, logger *zap.Logger) (*Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Client{
		client:      client,
		modelName:   cfg.ModelName,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		topP:        cfg.TopP,
		logger:      logger,
	}, nil
}

// Generate sends the system instruction and user payload to Gemini and
// returns the raw response text. JSON response mode is requested so the model
// answers with a bare object.
func (c *Client) Generate(ctx context.Context, systemInstruction string, userPayload string) (string, error) {
	// GenerativeModel is a lightweight handle; a fresh one per call keeps the
	// client safe for concurrent use.
	model := c.client.GenerativeModel(c.modelName)
	model.SetTemperature(c.temperature)
	model.SetTopP(c.topP)
	model.SetMaxOutputTokens(int32(c.maxTokens))
	model.ResponseMIMEType = "application/json"
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemInstruction)},
	}

	resp, err := model.GenerateContent(ctx, genai.Text(userPayload))
	if err != nil {
		return "", fmt.Errorf("failed to generate content with Gemini: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from Gemini")
	}

	return fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0]), nil
}

// Close closes the underlying Gemini client.
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}
