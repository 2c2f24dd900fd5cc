package core

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"mailgate/internal/utils"
	"mailgate/internal/whitelist"
)

// PipelineConfig holds the immutable knobs for the classification pipeline.
type PipelineConfig struct {
	// MaxBodyChars bounds how much body text is sent to the text service.
	MaxBodyChars int

	// AttemptTimeout is applied to each individual text service call.
	AttemptTimeout time.Duration

	// Retry bounds transport retries against the text service.
	Retry RetryPolicy
}

// Pipeline composes the layered spam decision: allowlist bypass, then the
// deterministic rule engine, then the generative classifier on no match. It
// holds no per-message state and is safe for concurrent use.
type Pipeline struct {
	rules      *RuleEngine
	classifier *ModelClassifier
	allowlist  *whitelist.Checker
	text       *utils.TextProcessor
	cfg        PipelineConfig
	logger     *zap.Logger
}

// NewPipeline creates a classification pipeline. The allowlist may be nil.
func NewPipeline(
	rules *RuleEngine,
	classifier *ModelClassifier,
	allowlist *whitelist.Checker,
	text *utils.TextProcessor,
	cfg PipelineConfig,
	logger *zap.Logger,
) *Pipeline {
	return &Pipeline{
		rules:      rules,
		classifier: classifier,
		allowlist:  allowlist,
		text:       text,
		cfg:        cfg,
		logger:     logger,
	}
}

// Classify decides whether a single message is spam. The rule engine is
// terminal when it matches; otherwise the body is fetched, reduced to plain
// text and classified by the model under the retry policy. Exhausted retries
// surface ErrClassificationUnavailable.
func (p *Pipeline) Classify(ctx context.Context, msg *Message, bodies BodyFetcher) (*Verdict, error) {
	if p.allowlist != nil && p.allowlist.IsAllowed(msg.From) {
		p.logger.Debug("Skipping classification for allowlisted sender",
			zap.String("id", msg.ID),
			zap.String("from", msg.From))
		return &Verdict{IsSpam: false, Reason: "Sender domain is allowlisted"}, nil
	}

	if verdict := p.rules.Apply(msg); verdict != nil {
		return verdict, nil
	}

	body, err := bodies.GetBody(ctx, msg.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch body for message %s: %w", msg.ID, err)
	}
	text := p.text.Truncate(p.text.Redact(ExtractPlainText(body)), p.cfg.MaxBodyChars)

	req := &ClassificationRequest{
		From:    msg.From,
		Subject: msg.Subject,
		Snippet: msg.Snippet,
		Body:    text,
	}

	return p.cfg.Retry.Do(ctx, p.logger, func(ctx context.Context) (*Verdict, error) {
		if p.cfg.AttemptTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, p.cfg.AttemptTimeout)
			defer cancel()
		}
		return p.classifier.Classify(ctx, req)
	})
}
