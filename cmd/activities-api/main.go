// cmd/activities-api/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"mergington-activities/internal/activities"
	"mergington-activities/internal/common/aws"
	"mergington-activities/internal/common/config"
	"mergington-activities/internal/common/database"
	"mergington-activities/internal/common/logger"
	"mergington-activities/internal/common/metrics"
	"mergington-activities/internal/common/observability"
	"mergington-activities/internal/membership"
	"mergington-activities/internal/server"

	"github.com/prometheus/client_golang/prometheus"
)

// retryWithBackoff runs operation until it succeeds or maxRetries is reached,
// doubling the delay after each failure.
func retryWithBackoff(ctx context.Context, operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		if err = operation(); err == nil {
			return nil
		}
		if i < maxRetries-1 {
			log.Warn(operationName+" failed, retrying",
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
			delay *= 2
		}
	}
	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

var openPostgres = database.NewPostgres

// connectPostgres opens and pings a pool, retrying with backoff. A pool whose
// ping fails is closed before the next attempt.
func connectPostgres(ctx context.Context, cfg config.PostgresConfig, attempts int, delay time.Duration, log *zap.Logger) (*database.PostgresClient, error) {
	var pg *database.PostgresClient
	err := retryWithBackoff(ctx, func() error {
		client, err := openPostgres(cfg)
		if err != nil {
			return err
		}
		if err := client.Ping(ctx); err != nil {
			_ = client.Close()
			return err
		}
		pg = client
		return nil
	}, attempts, delay, log, "PostgreSQL connection")
	if err != nil {
		return nil, err
	}
	return pg, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog, err := logger.New(logger.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer zapLog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, zapLog); err != nil {
		zapLog.Fatal("activities api stopped with error", zap.Error(err))
	}
	zapLog.Info("activities api stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, zapLog *zap.Logger) error {
	log := logger.NewZapAdapter(zapLog)
	zapLog.Info("starting activities api",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	seed, err := activities.LoadSeed(cfg.Registry.SeedFile)
	if err != nil {
		return err
	}
	registry, err := activities.New(seed)
	if err != nil {
		return err
	}
	zapLog.Info("activity registry loaded",
		zap.Int("activities", len(seed)),
		zap.String("seedFile", cfg.Registry.SeedFile),
	)
	prometheus.MustRegister(metrics.NewRegistryCollector(registry))

	obs, err := observability.New(cfg.App.Name, nil)
	if err != nil {
		return err
	}
	defer obs.Shutdown(context.Background())

	tp, err := observability.NewTracerProvider(ctx, cfg.App.Name, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			zapLog.Warn("tracer shutdown failed", zap.Error(err))
		}
	}()

	hooks := membership.NewDispatcher(log, 5*time.Second)
	checks := map[string]server.Checker{}

	if pgCfg := cfg.Database.Postgres; pgCfg.Enabled {
		pg, err := connectPostgres(ctx, pgCfg, 10, 2*time.Second, zapLog)
		if err != nil {
			return err
		}
		defer pg.Close()

		audit := membership.NewAuditSink(pg)
		if err := audit.EnsureSchema(ctx); err != nil {
			return err
		}
		hooks.Add(audit)
		checks["postgres"] = pg
		zapLog.Info("audit sink enabled")
	}

	if redisCfg := cfg.Database.Redis; redisCfg.Enabled {
		rdb := database.NewRedis(redisCfg)
		err := retryWithBackoff(ctx, func() error { return rdb.Ping(ctx) }, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			return err
		}
		defer rdb.Close()

		hooks.Add(membership.NewRedisPublisher(rdb, redisCfg.Channel))
		checks["redis"] = rdb
		zapLog.Info("redis publisher enabled", zap.String("channel", redisCfg.Channel))
	}

	awsCfg := cfg.Integrations.AWS
	if awsCfg.SNS.Enabled {
		snsClient, err := aws.NewSNSClient(ctx, awsCfg.Region, awsCfg.SNS.TopicARN)
		if err != nil {
			return err
		}
		hooks.Add(membership.NewSNSPublisher(snsClient))
		zapLog.Info("sns publisher enabled", zap.String("topicArn", awsCfg.SNS.TopicARN))
	}
	if awsCfg.SES.Enabled {
		sesClient, err := aws.NewSESClient(ctx, awsCfg.Region, awsCfg.SES.FromEmail)
		if err != nil {
			return err
		}
		hooks.Add(membership.NewNotifier(sesClient))
		zapLog.Info("signup notifier enabled", zap.String("from", awsCfg.SES.FromEmail))
	}

	srv := server.New(server.Deps{
		Registry:      registry,
		Hooks:         hooks,
		Logger:        log,
		Observability: obs,
		Tracer:        tp.Tracer(),
		ReadyChecks:   checks,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      srv.Routes(),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	errCh := make(chan error, 1)
	go func() {
		zapLog.Info("http server listening",
			zap.String("address", cfg.Server.Address),
			zap.Strings("hooks", hooks.Sinks()),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	zapLog.Info("shutdown signal received, draining requests")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("http server shutdown failed", zap.Error(err))
	}
	if err := hooks.Wait(shutdownCtx); err != nil {
		zapLog.Warn("pending membership hooks abandoned", zap.Error(err))
	}
	return nil
}
