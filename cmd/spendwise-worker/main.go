package main

import (
	"context"
	"os"
	"time"

	"spendwise/internal/adapters"
	"spendwise/internal/cli"
	"spendwise/internal/log"
	"spendwise/internal/services"
	"spendwise/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.MustLoadConfig()
	logger := cli.SetupLogger(cfg, log.ComponentWorker)

	logger.Info("Starting spendwise-worker")

	res, err := cli.OpenBackend(context.Background(), logger, cfg)
	if err != nil {
		logger.Error("Failed to open backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	accounts := services.NewAccountService(res.Store, cfg.SessionLifetime)
	reports := services.NewReportService(res.Store, nil, nil, nil)
	digests := services.NewDigestService(res.Store, res.Publisher, services.WeekdayChecker{})
	notifier := adapters.NewLogNotifier(logger.Logger)

	w := worker.New(res.Store, reports, digests, res.ReportWriter, notifier, logger)
	scheduler := worker.NewScheduler(digests, accounts, cfg.DigestInterval)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := scheduler.Stop(ctx); err != nil {
			logger.Error("Scheduler shutdown error", log.FieldError, err)
		}
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})

	if err := scheduler.Start(ctx); err != nil {
		logger.Error("Failed to start scheduler", log.FieldError, err)
		os.Exit(1)
	}

	if res.AMQP == nil {
		logger.Warn("No AMQP broker configured, running the digest scheduler only")
	} else {
		go func() {
			if err := w.Consume(ctx, res.AMQP, cfg.WorkerPrefetch); err != nil {
				logger.Error("Message consumption failed", log.FieldError, err)
			}
		}()
		logger.Info("Consuming events", "prefetch", cfg.WorkerPrefetch)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
