// cmd/hook-server/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"spreadsheet-hooks/internal/app"
	"spreadsheet-hooks/internal/common/camunda"
	"spreadsheet-hooks/internal/common/config"
	"spreadsheet-hooks/internal/common/database"
	"spreadsheet-hooks/internal/common/idempotency"
	"spreadsheet-hooks/internal/common/logger"
	"spreadsheet-hooks/internal/common/observability"
	"spreadsheet-hooks/internal/server"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting hook server...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	serviceName := cfg.Observability.ServiceName
	if serviceName == "" {
		serviceName = "spreadsheet-hooks"
	}
	obs := observability.New(serviceName, cfg.Observability.OTLPEndpoint, zapLog)
	defer obs.Shutdown()

	ctx := context.Background()
	checks := map[string]server.ReadinessCheck{}

	// --- Duplicate-charge guard ---
	var guard idempotency.Guard = idempotency.NoopGuard{}
	if cfg.Redis.Enabled {
		redis := database.NewRedis(cfg.Redis)
		err = retryWithBackoff(func() error {
			return redis.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redis.Close()
		zapLog.Info("Redis connected successfully")

		guard = idempotency.NewRedisGuard(redis.GetClient(), config.GetDuration(cfg.Redis.GuardTTL))
		checks["redis"] = redis.Ping
	}

	registry, err := app.NewRegistry(app.Dependencies{
		Config:        cfg,
		ZapLogger:     zapLog,
		Logger:        log,
		Observability: obs,
		Guard:         guard,
	})
	if err != nil {
		zapLog.Fatal("failed to build hooks", zap.Error(err))
	}
	zapLog.Info("Hooks registered", zap.Strings("hooks", registry.Names()))

	// --- Zeebe workers ---
	var workers []*camunda.HookWorker
	if cfg.Camunda.Enabled {
		var zeebe *camunda.Client
		err = retryWithBackoff(func() error {
			var err error
			zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
				GatewayAddress:         cfg.Camunda.BrokerAddress,
				UsePlaintextConnection: true,
				ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
			})
			return err
		}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		defer zeebe.Close()
		zapLog.Info("Zeebe client connected successfully")
		checks["zeebe"] = zeebe.HealthCheck

		for _, name := range registry.Names() {
			hook, _ := registry.Lookup(name)
			hookCfg := config.GetHookConfig(cfg, name)

			w := camunda.NewHookWorker(name, hook, log)
			w.Open(zeebe.GetClient(), camunda.WorkerOptions{
				HookName:      name,
				MaxJobsActive: hookCfg.MaxJobsActive,
				Timeout:       config.GetDuration(hookCfg.Timeout),
				WorkerName:    serviceName,
			})
			workers = append(workers, w)
		}
	}

	// --- HTTP server ---
	srv := server.New(server.Options{
		Address:         cfg.Server.Address,
		ReadTimeout:     config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout:    config.GetDuration(cfg.Server.WriteTimeout),
		Registry:        registry,
		Logger:          log,
		ReadinessChecks: checks,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		zapLog.Info("Shutdown signal received, stopping hook server...")
	case err := <-errCh:
		if err != nil {
			zapLog.Error("HTTP server failed", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}
	for _, w := range workers {
		w.Close()
	}

	zapLog.Info("Hook server stopped gracefully")
}
