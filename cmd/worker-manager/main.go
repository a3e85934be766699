// cmd/worker-manager/main.go
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

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"yecs-workers/internal/common/aws"
	"yecs-workers/internal/common/camunda"
	"yecs-workers/internal/common/config"
	"yecs-workers/internal/common/database"
	"yecs-workers/internal/common/logger"
	"yecs-workers/internal/common/observability"
	"yecs-workers/pkg/registry"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(ctx context.Context, operation func(context.Context) error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation(ctx)
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"error":       err.Error(),
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return fmt.Errorf("%s cancelled: %w", operationName, ctx.Err())
			}
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func fatal(log logger.Logger, msg string, err error) {
	log.Error(msg, map[string]interface{}{"error": err.Error()})
	os.Exit(1)
}

func main() {
	bootLog := logger.NewStructured("info", "console")

	cfg, err := config.Load()
	if err != nil {
		fatal(bootLog, "config load failed", err)
	}

	log, err := logger.NewFromConfig(cfg.Logging)
	if err != nil {
		fatal(bootLog, "logger setup failed", err)
	}
	log = log.WithFields(map[string]interface{}{
		"service": cfg.App.Name,
		"version": cfg.App.Version,
	})
	log.Info("Starting worker manager...", nil)

	obs, err := observability.New("worker-manager")
	if err != nil {
		log.Warn("observability setup failed, continuing without otel metrics", map[string]interface{}{
			"error": err.Error(),
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Zeebe ---
	zeebe, err := camunda.NewClient(ctx, camunda.ConfigFromSettings(cfg.Camunda))
	if err != nil {
		fatal(log, "zeebe client failed after retries", err)
	}
	log.Info("Zeebe client connected successfully", map[string]interface{}{
		"gateway": cfg.Camunda.BrokerAddress,
	})

	// --- PostgreSQL ---
	var pg *database.PostgresClient
	err = retryWithBackoff(ctx, func(ctx context.Context) error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, log, "PostgreSQL connection")
	if err != nil {
		fatal(log, "postgres failed after retries", err)
	}
	log.Info("PostgreSQL connected successfully", nil)

	// --- Elasticsearch ---
	var es *database.ElasticsearchClient
	err = retryWithBackoff(ctx, func(ctx context.Context) error {
		var err error
		es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return es.Ping(ctx)
	}, 15, 2*time.Second, log, "Elasticsearch connection")
	if err != nil {
		fatal(log, "elasticsearch failed after retries", err)
	}
	log.Info("Elasticsearch connected successfully", nil)

	// --- Redis ---
	var rdb *database.RedisClient
	err = retryWithBackoff(ctx, func(ctx context.Context) error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, log, "Redis connection")
	if err != nil {
		fatal(log, "redis failed after retries", err)
	}
	log.Info("Redis connected successfully", nil)

	// --- AWS alerts ---
	var alerter *aws.BiasAlerter
	if cfg.Audit.Alerts.Enabled {
		awsCfg, err := aws.LoadConfig(ctx, cfg.Audit.Alerts.AWSRegion)
		if err != nil {
			fatal(log, "aws config load failed", err)
		}
		var sender aws.EmailSender
		if len(cfg.Audit.Alerts.EmailTo) > 0 {
			sender = aws.NewSESClient(awsCfg)
		}
		alerter = aws.NewBiasAlerter(aws.NewSNSClient(awsCfg), sender, cfg.Audit.Alerts)
		log.Info("Bias alerts enabled", map[string]interface{}{
			"region":     cfg.Audit.Alerts.AWSRegion,
			"recipients": len(cfg.Audit.Alerts.EmailTo),
		})
	}

	deps := &dependencies{
		cfg:      cfg,
		registry: registry.MustDefault(),
		scores:   pg.Scores(),
		cache:    rdb.ScoreCache(cfg.Cache.TTL()),
		archive:  es.ReportArchive(cfg.Audit.ReportIndex),
		alerter:  alerter,
		log:      log,
	}
	if err := deps.registry.Validate(); err != nil {
		fatal(log, "activity registry is invalid", err)
	}

	handlers, err := buildHandlers(deps)
	if err != nil {
		fatal(log, "failed to build handlers", err)
	}

	var workers []worker.JobWorker
	for _, h := range handlers.list {
		wcfg := config.GetWorkerConfig(cfg, h.taskType)
		if !wcfg.Enabled {
			log.Info("worker disabled", map[string]interface{}{"taskType": h.taskType})
			continue
		}
		workers = append(workers, zeebe.OpenWorker(h.taskType, wcfg, camunda.Instrument(h.taskType, obs, h.handle)))
		log.Info("worker started", map[string]interface{}{
			"taskType":      h.taskType,
			"maxJobsActive": wcfg.MaxJobsActive,
			"timeout_ms":    wcfg.Timeout,
		})
	}
	log.Info("Workers registered", map[string]interface{}{"count": len(workers)})

	// --- Scheduled audit ---
	var scheduler *auditScheduler
	if cfg.Audit.Enabled {
		auditTimeout := config.GetDuration(config.GetWorkerConfig(cfg, auditTaskType).Timeout)
		scheduler, err = newAuditScheduler(cfg.Audit.Schedule, auditTimeout, handlers.runAudit, log)
		if err != nil {
			fatal(log, "invalid audit schedule", err)
		}
		scheduler.Start()
	}

	// --- Health & Metrics Server ---
	server := newServer(cfg.Server.Address, map[string]check{
		"zeebe":    zeebe.HealthCheck,
		"postgres": pg.Ping,
		"redis":    rdb.Ping,
	}, log)
	go func() {
		log.Info("Health/Metrics server listening", map[string]interface{}{"address": cfg.Server.Address})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Health/Metrics server failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	log.Info("Shutdown signal received, stopping workers...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if scheduler != nil {
		scheduler.Stop(shutdownCtx)
	}
	for _, w := range workers {
		w.Close()
		w.AwaitClose()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Error stopping health server", map[string]interface{}{"error": err.Error()})
	}
	if err := zeebe.Close(); err != nil {
		log.Error("Error closing Zeebe client", map[string]interface{}{"error": err.Error()})
	}
	if err := rdb.Close(); err != nil {
		log.Error("Error closing Redis client", map[string]interface{}{"error": err.Error()})
	}
	if err := pg.Close(); err != nil {
		log.Error("Error closing PostgreSQL client", map[string]interface{}{"error": err.Error()})
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down observability", map[string]interface{}{"error": err.Error()})
	}

	log.Info("Worker manager stopped gracefully", nil)
}
