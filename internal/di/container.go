package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"mailgate/internal/adapters/smtpgate"
	"mailgate/internal/config"
	"mailgate/internal/core"
	"mailgate/internal/factory"
	"mailgate/internal/logging"
	"mailgate/internal/utils"
	"mailgate/internal/whitelist"
)

// BuildContainer creates the dependency injection container for the SMTP
// gate daemon.
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register pipeline dependencies shared with the CLI container
	if err := providePipeline(container); err != nil {
		return nil, err
	}

	// Register the SMTP gate filter
	if err := container.Provide(func(pipeline *core.Pipeline, cfg *config.Config, logger *zap.Logger) *smtpgate.Filter {
		return smtpgate.NewFilter(pipeline, cfg.GetServer(), logger)
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// providePipeline registers everything needed to build a classification
// pipeline from configuration.
func providePipeline(container *dig.Container) error {
	if err := container.Provide(factory.NewLLMFactory); err != nil {
		return err
	}

	if err := container.Provide(func(f *factory.LLMFactory) (core.TextGenerator, error) {
		return f.CreateTextGenerator()
	}); err != nil {
		return err
	}

	if err := container.Provide(utils.NewTextProcessor); err != nil {
		return err
	}

	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) *whitelist.Checker {
		return whitelist.NewChecker(cfg.GetRules().AllowlistedDomains, logger)
	}); err != nil {
		return err
	}

	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) *core.RuleEngine {
		rules := cfg.GetRules()
		return core.NewRuleEngine(rules.BlockedSenders, rules.SurveyPhrases, rules.SalesPhrases, logger)
	}); err != nil {
		return err
	}

	if err := container.Provide(func(gen core.TextGenerator, cfg *config.Config, logger *zap.Logger) *core.ModelClassifier {
		return core.NewModelClassifier(gen, cfg.GetLLM().SystemInstruction, logger)
	}); err != nil {
		return err
	}

	return container.Provide(func(
		rules *core.RuleEngine,
		classifier *core.ModelClassifier,
		allowlist *whitelist.Checker,
		text *utils.TextProcessor,
		cfg *config.Config,
		logger *zap.Logger,
	) *core.Pipeline {
		llm := cfg.GetLLM()
		retry := cfg.GetRetry()
		return core.NewPipeline(rules, classifier, allowlist, text, core.PipelineConfig{
			MaxBodyChars:   llm.MaxBodyChars,
			AttemptTimeout: llm.AttemptTimeout,
			Retry: core.RetryPolicy{
				MaxAttempts: retry.MaxAttempts,
				MinBackoff:  retry.MinBackoff,
				MaxBackoff:  retry.MaxBackoff,
			},
		}, logger)
	})
}
