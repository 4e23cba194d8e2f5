package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"kharcha/internal/amqp"
	"kharcha/internal/cache"
	"kharcha/internal/charts"
	"kharcha/internal/cli"
	apphttp "kharcha/internal/http"
	applog "kharcha/internal/log"
	"kharcha/internal/ports"
	"kharcha/internal/report"
	"kharcha/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig(cli.SetupLogger())
	logger := cli.ConfigureLogger(cfg, applog.ComponentApp)

	ctx := context.Background()
	stores := cli.InitStores(ctx, logger, cfg)
	clock := cli.InitClock(logger, cfg)

	registry := cache.NewKnownUsers(stores.Registry, cfg.UserCacheSize, cfg.UserCacheTTL)

	reports, err := report.NewWriter(cfg.ReportsDir(), stores.Ledgers)
	if err != nil {
		logger.Error("Failed to initialize report writer", applog.FieldError, err, "dir", cfg.ReportsDir())
		os.Exit(1)
	}
	renderer, err := charts.NewSVGRenderer(cfg.ChartsDir())
	if err != nil {
		logger.Error("Failed to initialize chart renderer", applog.FieldError, err, "dir", cfg.ChartsDir())
		os.Exit(1)
	}

	// events are optional; the tracker skips publishing when nil
	var (
		publisher  ports.EventPublisher
		amqpClient *amqp.Client
	)
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, ledger events disabled", applog.FieldError, err)
		} else {
			publisher = amqpClient
			logger.Info("AMQP publisher initialized", "exchange", cfg.AMQPExchange)
		}
	}

	tracker := services.NewTrackerService(services.Dependencies{
		Registry:  registry,
		Ledgers:   stores.Ledgers,
		Markers:   stores.Markers,
		Reports:   reports,
		Charts:    renderer,
		Publisher: publisher,
		Clock:     clock,
	})

	srv := apphttp.NewServer(":"+cfg.Port, tracker, logger, apphttp.Options{
		Ready: func(ctx context.Context) error {
			_, err := stores.Registry.Users(ctx)
			return err
		},
	})

	cacheCtx, stopCache := context.WithCancel(ctx)
	caches := cache.NewManager(registry.Cache())
	caches.StartCleanup(cacheCtx, 10*time.Minute)

	shutdownCtx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		stopCache()
		caches.Wait()
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Warn("AMQP close error", applog.FieldError, err)
			}
		}
		if err := stores.Cleanup(); err != nil {
			logger.Warn("Storage close error", applog.FieldError, err)
		}
	})

	logger.Info("Starting kharcha server",
		"port", cfg.Port,
		"backend", cfg.LedgerBackend,
		"data_dir", cfg.DataDir,
		"timezone", cfg.Timezone,
		"events", publisher != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}
