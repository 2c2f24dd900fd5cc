package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ErrClassificationUnavailable is returned when every transport attempt
// against the text service has failed. Callers decide whether to skip the
// message, log it, or abort the batch.
var ErrClassificationUnavailable = errors.New("classification unavailable")

// RetryPolicy bounds transport retries: up to MaxAttempts calls with
// exponential backoff, starting at MinBackoff and capped at MaxBackoff.
type RetryPolicy struct {
	MaxAttempts int
	MinBackoff  time.Duration
	MaxBackoff  time.Duration
}

// Do runs fn until it succeeds or attempts are exhausted. Backoff sleeps
// respect the context, so callers with a deadline are not held hostage by the
// wait. Exhaustion and cancellation both surface as
// ErrClassificationUnavailable.
func (p RetryPolicy) Do(ctx context.Context, logger *zap.Logger, fn func(ctx context.Context) (*Verdict, error)) (*Verdict, error) {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	backoff := p.MinBackoff
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		verdict, err := fn(ctx)
		if err == nil {
			return verdict, nil
		}
		lastErr = err
		if attempt == attempts {
			break
		}

		logger.Warn("Text service call failed, backing off",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.Duration("backoff", backoff),
			zap.Error(err))

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrClassificationUnavailable, ctx.Err())
		}

		backoff *= 2
		if p.MaxBackoff > 0 && backoff > p.MaxBackoff {
			backoff = p.MaxBackoff
		}
	}

	return nil, fmt.Errorf("%w after %d attempts: %v", ErrClassificationUnavailable, attempts, lastErr)
}
