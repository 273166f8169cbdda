package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"fieldops/config"
	"fieldops/internal/queue"
	"fieldops/internal/schedule"
	apperrors "fieldops/pkg/errors"
	"fieldops/pkg/logger"
	"fieldops/pkg/snowflake"
	"fieldops/storage"
)

func main() {
	logger.Init()
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Logger.Info("Worker received shutdown signal",
			zap.String("signal", sig.String()),
		)
		cancel()
	}()

	if err := storage.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize storage for worker", zap.Error(err))
	}
	defer storage.Close()

	if err := snowflake.Init(config.Cfg.SnowflakeMachineID, config.Cfg.SnowflakeDataCenter); err != nil {
		logger.Logger.Fatal("Failed to initialize snowflake for worker", zap.Error(err))
	}

	// Delayed scan triggers run the same guarded scans as the poller. A
	// trigger that lands while the poller holds the guard is dropped; the
	// scan it wanted is already running.
	queue.SetTriggerRunner(func(ctx context.Context, job string) error {
		_, err := schedule.Get().RunOnce(ctx, job)
		if errors.Is(err, apperrors.JobRunning) || errors.Is(err, apperrors.JobUnknown) {
			logger.Logger.Warn("Skipping job trigger",
				zap.String("job", job),
				zap.Error(err),
			)
			return nil
		}
		return err
	})

	logger.Logger.Info("Worker service starting",
		zap.String("service", config.Cfg.ServiceName+"-worker"),
		zap.String("environment", config.Cfg.Environment),
	)

	queue.StartAllConsumers(ctx)

	logger.Logger.Info("Worker service shutting down gracefully")
}
