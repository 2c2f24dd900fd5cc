package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"mailgate/internal/adapters/smtpgate"
	"mailgate/internal/core"
	"mailgate/internal/di"
)

func main() {
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run starts the SMTP gate and blocks until a shutdown signal arrives.
func run(
	logger *zap.Logger,
	filter *smtpgate.Filter,
	generator core.TextGenerator,
) error {
	defer logger.Sync()

	if err := filter.Start(); err != nil {
		logger.Fatal("Failed to start SMTP gate", zap.Error(err))
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Info("Shutting down...")

	if err := filter.Stop(); err != nil {
		logger.Error("Failed to stop SMTP gate", zap.Error(err))
	}

	// Close any resources that need closing
	if closer, ok := generator.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close text generator", zap.Error(err))
		}
	}

	logger.Info("Shutdown complete")
	return nil
}
