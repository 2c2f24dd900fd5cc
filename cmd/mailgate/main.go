package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"mailgate/internal/config"
	"mailgate/internal/core"
	"mailgate/internal/di"
)

func main() {
	flags := di.ParseFlags()

	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run lists recent inbox messages and classifies each one sequentially.
func run(
	logger *zap.Logger,
	cfg *config.Config,
	store core.MessageStore,
	pipeline *core.Pipeline,
	generator core.TextGenerator,
) error {
	defer logger.Sync()

	ctx := context.Background()
	gmailCfg := cfg.GetGmail()

	ids, err := store.ListMessageIDs(ctx, gmailCfg.Query, gmailCfg.MaxResults)
	if err != nil {
		return fmt.Errorf("failed to list inbox messages: %w", err)
	}
	logger.Info("Listed inbox messages",
		zap.Int("count", len(ids)),
		zap.String("query", gmailCfg.Query))

	for _, id := range ids {
		msg, err := store.GetMetadata(ctx, id)
		if err != nil {
			logger.Error("Failed to fetch message metadata",
				zap.String("id", id),
				zap.Error(err))
			continue
		}

		verdict, err := pipeline.Classify(ctx, msg, store)
		if err != nil {
			if errors.Is(err, core.ErrClassificationUnavailable) {
				logger.Error("Classification unavailable, skipping message",
					zap.String("id", id),
					zap.Error(err))
				continue
			}
			return err
		}

		tag := "legit"
		if verdict.IsSpam {
			tag = "SPAM"
		}
		snippet := msg.Snippet
		if len(snippet) > 160 {
			snippet = snippet[:160] + "..."
		}
		fmt.Printf("[%s] %s | %s | %s\n", tag, msg.Date, msg.From, msg.Subject)
		fmt.Printf("   reason: %s\n", verdict.Reason)
		fmt.Printf("   %s\n", snippet)
	}

	// Close any resources that need closing
	if closer, ok := generator.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close text generator", zap.Error(err))
		}
	}

	return nil
}
