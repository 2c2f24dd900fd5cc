package di

import (
	"context"
	"flag"
	"strings"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"mailgate/internal/adapters/gmail"
	"mailgate/internal/config"
	"mailgate/internal/core"
	"mailgate/internal/logging"
)

// CLIFlags contains all command line flags for the inbox classification CLI
type CLIFlags struct {
	// LLM provider flags
	Provider     string
	GeminiAPIKey string
	OpenAIAPIKey string
	MaxBodyChars int

	// Mailbox flags
	Query      string
	MaxResults int64

	// Input flags
	Verbose    bool
	JSONLog    bool
	ConfigFile string
}

// ParseFlags parses command line flags and returns a CLIFlags struct
func ParseFlags() *CLIFlags {
	flags := &CLIFlags{}

	flag.StringVar(&flags.Provider, "provider", "gemini", "LLM provider (gemini, openai, bedrock)")
	flag.StringVar(&flags.GeminiAPIKey, "gemini-api-key", "", "API key for Google Gemini")
	flag.StringVar(&flags.OpenAIAPIKey, "openai-api-key", "", "API key for OpenAI")
	flag.IntVar(&flags.MaxBodyChars, "max-body-chars", 2000, "Maximum body size to send to the model")

	flag.StringVar(&flags.Query, "query", "in:inbox newer_than:7d", "Gmail search query")
	flag.Int64Var(&flags.MaxResults, "max-results", 10, "Maximum number of messages to classify")

	flag.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging")
	flag.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	flag.StringVar(&flags.ConfigFile, "config", "", "Path to config file (overrides command line flags)")

	flag.Parse()
	return flags
}

// BuildCLIContainer creates the dependency injection container for the inbox
// classification CLI.
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		if flags.ConfigFile != "" {
			cfg, err := config.New()
			if err != nil {
				return nil, err
			}
			logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
			return cfg, nil
		}
		return createConfigFromFlags(flags), nil
	}); err != nil {
		return nil, err
	}

	// Register pipeline dependencies shared with the daemon container
	if err := providePipeline(container); err != nil {
		return nil, err
	}

	// Register the Gmail message store
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) (core.MessageStore, error) {
		return gmail.NewStore(context.Background(), cfg.GetGmail(), logger)
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags(flags *CLIFlags) *config.Config {
	v := config.NewEmptyViper()

	// API keys can come from MAILGATE_ env vars instead of flags
	v.AutomaticEnv()
	v.SetEnvPrefix("MAILGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.Set("llm.provider", flags.Provider)
	v.Set("llm.max_body_chars", flags.MaxBodyChars)

	switch flags.Provider {
	case "gemini":
		if flags.GeminiAPIKey != "" {
			v.Set("gemini.api_key", flags.GeminiAPIKey)
		}
	case "openai":
		if flags.OpenAIAPIKey != "" {
			v.Set("openai.api_key", flags.OpenAIAPIKey)
		}
	}

	v.Set("gmail.query", flags.Query)
	v.Set("gmail.max_results", flags.MaxResults)

	return config.NewFromViper(v)
}
