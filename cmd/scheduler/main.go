package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"fieldops/config"
	"fieldops/internal/schedule"
	"fieldops/pkg/logger"
	"fieldops/pkg/metrics"
	"fieldops/pkg/otel"
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
		logger.Logger.Info("Scheduler received shutdown signal",
			zap.String("signal", sig.String()),
		)
		cancel()
	}()

	if err := storage.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize storage for scheduler", zap.Error(err))
	}
	defer storage.Close()

	if err := snowflake.Init(config.Cfg.SnowflakeMachineID, config.Cfg.SnowflakeDataCenter); err != nil {
		logger.Logger.Fatal("Failed to initialize snowflake for scheduler", zap.Error(err))
	}

	shutdownOtel, err := otel.InitOpenTelemetry(ctx, otel.Config{
		ServiceName:  config.Cfg.ServiceName + "-scheduler",
		Environment:  config.Cfg.Environment,
		OTLPEndpoint: config.Cfg.OTLPEndpoint,
		SampleRatio:  config.Cfg.TracingSample,
	})
	if err != nil {
		logger.Logger.Warn("Failed to initialize OpenTelemetry, telemetry disabled", zap.Error(err))
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownOtel(shutdownCtx); err != nil {
				logger.Logger.Error("Failed to shutdown OpenTelemetry", zap.Error(err))
			}
		}()

		if err := metrics.InitMetrics(); err != nil {
			logger.Logger.Warn("Failed to initialize service metrics", zap.Error(err))
		}
	}

	logger.Logger.Info("Scheduler service starting",
		zap.String("service", config.Cfg.ServiceName+"-scheduler"),
		zap.String("environment", config.Cfg.Environment),
	)

	go runIntervalLoop(ctx, schedule.JobLunchAlerts, config.Cfg.LunchAlertInterval)
	go runIntervalLoop(ctx, schedule.JobReminders, config.Cfg.ReportReminderInterval)
	go runIntervalLoop(ctx, schedule.JobGPS, config.Cfg.GPSScanInterval)
	go runIntervalLoop(ctx, schedule.JobCura, config.Cfg.CuraScanInterval)

	go runDailyLoop(ctx, schedule.JobWorktime, config.Cfg.WorktimeRunAt)
	go runDailyLoop(ctx, schedule.JobLunchShortfall, config.Cfg.ShortfallRunAt)
	go runDailyLoop(ctx, schedule.JobResponsibility, config.Cfg.ResponsibilityRunAt)
	go runDailyLoop(ctx, schedule.JobAbsence, config.Cfg.AbsenceRunAt)

	<-ctx.Done()

	logger.Logger.Info("Scheduler service shutting down gracefully")
}

// runIntervalLoop runs the job on a fixed ticker.
func runIntervalLoop(ctx context.Context, job string, interval time.Duration) {
	s := schedule.Get()

	if config.Cfg.IsDevelopment() && interval > time.Minute {
		interval = time.Minute
		logger.Logger.Info("Job loop running in development mode with 1m interval",
			zap.String("job", job),
		)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
			if _, err := s.RunOnce(runCtx, job); err != nil {
				logger.Logger.Error("Scheduled job run failed",
					zap.String("job", job),
					zap.Error(err),
				)
			}
			cancel()
		}
	}
}

// runDailyLoop runs the job once per civil day at the configured "HH:MM".
// Development mode falls back to a 1m ticker for local debugging.
func runDailyLoop(ctx context.Context, job, runAt string) {
	s := schedule.Get()

	if config.Cfg.IsDevelopment() {
		logger.Logger.Info("Daily job running in development mode with 1m interval",
			zap.String("job", job),
		)
		runIntervalLoop(ctx, job, time.Minute)
		return
	}

	loc := config.Cfg.Location()

	var hour, minute int
	if _, err := fmt.Sscanf(runAt, "%d:%d", &hour, &minute); err != nil {
		logger.Logger.Error("Invalid daily run time, defaulting to midnight",
			zap.String("job", job),
			zap.String("run_at", runAt),
			zap.Error(err),
		)
		hour, minute = 0, 0
	}

	for {
		now := time.Now().In(loc)
		next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, loc)
		if !next.After(now) {
			next = next.AddDate(0, 0, 1)
		}

		delay := time.Until(next)
		logger.Logger.Info("Scheduled next daily run",
			zap.String("job", job),
			zap.Time("next_run", next),
			zap.Duration("delay", delay),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			runCtx, cancel := context.WithTimeout(ctx, 10*time.Minute)
			if _, err := s.RunOnce(runCtx, job); err != nil {
				logger.Logger.Error("Daily job run failed",
					zap.String("job", job),
					zap.Error(err),
				)
			}
			cancel()
		}
	}
}
