package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"spendwise/internal/cache"
	"spendwise/internal/cli"
	apphttp "spendwise/internal/http"
	"spendwise/internal/log"
	"spendwise/internal/report"
	"spendwise/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.MustLoadConfig()
	logger := cli.SetupLogger(cfg, log.ComponentApp)

	res, err := cli.OpenBackend(context.Background(), logger, cfg)
	if err != nil {
		logger.Error("Failed to open backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	dashboards := cache.NewLRUCache[services.Dashboard](cfg.CacheSize, cfg.CacheTTL)
	analytics := cache.NewLRUCache[report.Analytics](cfg.CacheSize, cfg.CacheTTL)
	caches := cache.NewManager()
	caches.Register(dashboards)
	caches.Register(analytics)
	caches.StartCleanup(time.Minute)

	// Only the worker consumes exports, so without a broker the route answers 503.
	var exports services.Publisher
	if res.AMQP != nil {
		exports = res.AMQP
	}

	svc := apphttp.Services{
		Accounts:   services.NewAccountService(res.Store, cfg.SessionLifetime),
		Categories: services.NewCategoryService(res.Store),
		Expenses:   services.NewExpenseService(res.Store, res.Publisher),
		Budgets:    services.NewBudgetService(res.Store),
		Settings:   services.NewSettingsService(res.Store),
		Reports:    services.NewReportService(res.Store, exports, dashboards, analytics),
	}

	srv, err := apphttp.NewServer(svc, apphttp.Options{
		Addr:            ":" + cfg.Port,
		Logger:          logger,
		SecureCookies:   cfg.SecureCookies,
		SessionLifetime: cfg.SessionLifetime,
		Store:           res.Store,
		Caches: map[string]apphttp.Sizer{
			"dashboard": dashboards,
			"analytics": analytics,
		},
	})
	if err != nil {
		logger.Error("Failed to create HTTP server", log.FieldError, err)
		_ = res.Cleanup()
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		caches.Stop()
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})

	logger.Info("Starting spendwise server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"exports", res.AMQP != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
