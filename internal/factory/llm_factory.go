package factory

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"mailgate/internal/adapters/bedrock"
	"mailgate/internal/adapters/gemini"
	"mailgate/internal/adapters/openai"
	"mailgate/internal/config"
	"mailgate/internal/core"
)

// LLMFactory creates text generator transports.
type LLMFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewLLMFactory creates a new LLM factory
func NewLLMFactory(cfg *config.Config, logger *zap.Logger) *LLMFactory {
	return &LLMFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateTextGenerator creates a text generator for the configured provider.
// Missing credentials fail here, before any message is processed.
func (f *LLMFactory) CreateTextGenerator() (core.TextGenerator, error) {
	provider := f.cfg.GetLLM().Provider

	switch provider {
	case "gemini":
		cfg := f.cfg.GetGemini()
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("gemini.api_key is not set (set MAILGATE_GEMINI_API_KEY or add it to the config file)")
		}
		return gemini.NewClient(context.Background(), cfg, f.logger)
	case "openai":
		cfg := f.cfg.GetOpenAI()
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai.api_key is not set (set MAILGATE_OPENAI_API_KEY or add it to the config file)")
		}
		return openai.NewClient(cfg, f.logger), nil
	case "bedrock":
		return bedrock.NewClient(context.Background(), f.cfg.GetBedrock(), f.logger)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", provider)
	}
}
