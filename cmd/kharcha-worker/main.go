package main

import (
	"context"
	"os"
	"time"

	"kharcha/internal/amqp"
	"kharcha/internal/cache"
	"kharcha/internal/cli"
	applog "kharcha/internal/log"
	gsheet "kharcha/internal/sheets/google"
	"kharcha/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig(cli.SetupLogger())
	logger := cli.ConfigureLogger(cfg, applog.ComponentWorker)

	if err := cfg.ValidateWorker(); err != nil {
		logger.Error("Worker configuration invalid", applog.FieldError, err)
		os.Exit(1)
	}

	logger.Info("Starting kharcha-worker")

	sheetsClient, err := gsheet.NewFromEnv(context.Background())
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err)
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}

	exporter := worker.NewExportWorker(sheetsClient)
	caches := cache.NewManager(exporter.Cache())

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(context.Context) {
		logger.Info("Shutting down worker")
	})
	caches.StartCleanup(ctx, time.Hour)

	consumeErr := make(chan error, 1)
	go func() {
		consumeErr <- amqpClient.ConsumeLedgerEvents(ctx, exporter.HandleEvent)
	}()

	select {
	case <-ctx.Done():
		<-consumeErr
	case err := <-consumeErr:
		// consumption only ends on its own when the broker setup fails
		logger.Error("Message consumption stopped", applog.FieldError, err)
		_ = amqpClient.Close()
		os.Exit(1)
	}

	<-done
	caches.Wait()
	if err := amqpClient.Close(); err != nil {
		logger.Warn("AMQP close error", applog.FieldError, err)
	}
	logger.Info("Worker stopped")
}
