// Package cli holds the process bootstrap shared by cmd/kharcha and
// cmd/kharcha-worker.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"kharcha/internal/backend"
	"kharcha/internal/config"
	"kharcha/internal/core"
	applog "kharcha/internal/log"
)

// SetupLogger installs a text logger at info level. It is replaced by
// ConfigureLogger once the configuration is known.
func SetupLogger() *applog.Logger {
	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)
	return logger
}

// ConfigureLogger builds the logger described by cfg and makes it the default.
func ConfigureLogger(cfg *config.Config, component string) *applog.Logger {
	lc := applog.DefaultConfig()
	lc.Level = applog.ParseLevel(cfg.LogLevel)
	lc.Format = cfg.LogFormat
	lc.Component = component
	logger := applog.New(lc)
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads .env for local development. A missing file is fine.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and exits on validation failure.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// InitStores opens the user registry and the configured ledger backend.
// Exits on failure.
func InitStores(ctx context.Context, logger *applog.Logger, cfg *config.Config) *backend.Stores {
	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	stores, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Logger).CreateStores(ctx, bc)
	if err != nil {
		logger.Error("Failed to initialize storage", applog.FieldError, err, "backend", bc.Type, "path", bc.SQLiteDBPath)
		os.Exit(1)
	}
	return stores
}

// InitClock returns the clock pinned to the configured time zone.
func InitClock(logger *applog.Logger, cfg *config.Config) core.Clock {
	clock, err := core.NewClock(cfg.Timezone)
	if err != nil {
		logger.Error("Failed to load time zone", applog.FieldError, err, "timezone", cfg.Timezone)
		os.Exit(1)
	}
	return clock
}

// GracefulShutdown cancels the returned context on SIGINT or SIGTERM after
// running cleanup. done is closed once shutdown has finished.
func GracefulShutdown(logger *applog.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		cancel()

		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached", "timeout", timeout)
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup is done.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
