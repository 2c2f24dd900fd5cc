package bedrock

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"go.uber.org/zap"

	"mailgate/internal/config"
)

// Client is a TextGenerator backed by Amazon Bedrock, speaking the Anthropic
// messages API.
type Client struct {
	client      *bedrockruntime.Client
	modelID     string
	maxTokens   int
	temperature float32
	logger      *zap.Logger
}

// NewClient creates a new Bedrock client using the default AWS credential
// chain.
func NewClient(ctx context.Context, cfg config.BedrockConfig, logger *zap.Logger) (*Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	return &Client{
		client:      bedrockruntime.NewFromConfig(awsCfg),
		modelID:     cfg.ModelID,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		logger:      logger,
	}, nil
}

// Generate invokes the model with the system instruction and user payload
// and returns the raw response text.
func (c *Client) Generate(ctx context.Context, systemInstruction string, userPayload string) (string, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"anthropic_version": "bedrock-2023-05-31",
		"max_tokens":        c.maxTokens,
		"temperature":       c.temperature,
		"system":            systemInstruction,
		"messages": []map[string]interface{}{
			{"role": "user", "content": userPayload},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal Bedrock request: %w", err)
	}

	out, err := c.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        payload,
	})
	if err != nil {
		return "", fmt.Errorf("failed to invoke Bedrock model: %w", err)
	}

	var resp struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return "", fmt.Errorf("failed to decode Bedrock response: %w", err)
	}

	if len(resp.Content) == 0 {
		return "", fmt.Errorf("empty response from Bedrock")
	}

	return resp.Content[0].Text, nil
}
