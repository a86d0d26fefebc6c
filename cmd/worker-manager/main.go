// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	commonaws "refi-pricing-workers/internal/common/aws"
	"refi-pricing-workers/internal/common/camunda"
	"refi-pricing-workers/internal/common/config"
	"refi-pricing-workers/internal/common/database"
	"refi-pricing-workers/internal/common/logger"
	"refi-pricing-workers/internal/common/observability"
	"refi-pricing-workers/pkg/registry"

	exp "refi-pricing-workers/internal/workers/export/export-pricing-results"
	pbf "refi-pricing-workers/internal/workers/ingestion/parse-borrower-file"
	uam "refi-pricing-workers/internal/workers/matrix/update-adjustment-matrix"
	nbc "refi-pricing-workers/internal/workers/notification/notify-batch-complete"
	pbb "refi-pricing-workers/internal/workers/pricing/price-borrower-batch"
	ipr "refi-pricing-workers/internal/workers/results/index-pricing-results"
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
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting pricing worker manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("pricing-worker-manager")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      10 * time.Second,
			RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		if err != nil {
			return err
		}
		return zeebe.HealthCheck(ctx)
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")

	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init AWS Clients ---
	sesClient, err := commonaws.NewSESClient(ctx, cfg.Notifications.AWS.Region)
	if err != nil {
		zapLog.Fatal("ses client failed", zap.Error(err))
	}
	snsClient, err := commonaws.NewSNSClient(ctx, cfg.Notifications.AWS.Region)
	if err != nil {
		zapLog.Fatal("sns client failed", zap.Error(err))
	}
	zapLog.Info("AWS clients initialized")

	// --- Load Worker Registry ---
	if reg, err := registry.LoadRegistry(cfg.RegistryPath); err != nil {
		zapLog.Warn("worker registry not loaded", zap.Error(err), zap.String("path", cfg.RegistryPath))
	} else {
		zapLog.Info("worker registry loaded",
			zap.String("version", reg.Version),
			zap.Int("activities", len(reg.Activities)),
		)
		for _, taskType := range []string{pbf.TaskType, pbb.TaskType, uam.TaskType, exp.TaskType, ipr.TaskType, nbc.TaskType} {
			if reg.FindByTaskType(taskType) == nil {
				zapLog.Warn("task type missing from registry", zap.String("taskType", taskType))
			}
		}
	}

	// --- Register Workers ---
	var workers []*camunda.CamundaWorker

	if wcfg := config.GetWorkerConfig(cfg, pbf.TaskType); wcfg.Enabled {
		handler := pbf.NewHandler(
			&pbf.Config{
				Timeout: config.GetDuration(wcfg.Timeout),
				MaxRows: 50000,
			},
			log,
		)
		workers = append(workers, startWorker(zeebe, pbf.TaskType, wcfg, handler, obs, zapLog))
	}

	if wcfg := config.GetWorkerConfig(cfg, pbb.TaskType); wcfg.Enabled {
		handler := pbb.NewHandler(
			&pbb.Config{
				Timeout:      config.GetDuration(wcfg.Timeout),
				BatchWorkers: cfg.Pricing.BatchWorkers,
				MatrixKey:    cfg.Pricing.MatrixKey,
				ResultsTTL:   time.Duration(cfg.Pricing.ResultsTTL) * time.Second,
			},
			pg.DB, redis.Client, log,
		)
		workers = append(workers, startWorker(zeebe, pbb.TaskType, wcfg, handler, obs, zapLog))
	}

	if wcfg := config.GetWorkerConfig(cfg, uam.TaskType); wcfg.Enabled {
		handler := uam.NewHandler(
			&uam.Config{
				Timeout:   config.GetDuration(wcfg.Timeout),
				MatrixKey: cfg.Pricing.MatrixKey,
			},
			redis.Client, log,
		)
		workers = append(workers, startWorker(zeebe, uam.TaskType, wcfg, handler, obs, zapLog))
	}

	if wcfg := config.GetWorkerConfig(cfg, exp.TaskType); wcfg.Enabled {
		handler := exp.NewHandler(
			&exp.Config{
				Timeout:            config.GetDuration(wcfg.Timeout),
				BreakEvenThreshold: float64(cfg.Pricing.BreakEvenThreshold),
			},
			redis.Client, log,
		)
		workers = append(workers, startWorker(zeebe, exp.TaskType, wcfg, handler, obs, zapLog))
	}

	if wcfg := config.GetWorkerConfig(cfg, ipr.TaskType); wcfg.Enabled {
		handler := ipr.NewHandler(
			&ipr.Config{
				Timeout: config.GetDuration(wcfg.Timeout),
				Index:   cfg.Database.Elasticsearch.Index,
			},
			esClient.Client, redis.Client, log,
		)
		workers = append(workers, startWorker(zeebe, ipr.TaskType, wcfg, handler, obs, zapLog))
	}

	if wcfg := config.GetWorkerConfig(cfg, nbc.TaskType); wcfg.Enabled {
		handler := nbc.NewHandler(
			&nbc.Config{
				Timeout:      config.GetDuration(wcfg.Timeout),
				EmailEnabled: cfg.Notifications.Email.Enabled,
				SMSEnabled:   cfg.Notifications.SMS.Enabled,
				FromEmail:    cfg.Notifications.Email.FromEmail,
			},
			sesClient, snsClient, log,
		)
		workers = append(workers, startWorker(zeebe, nbc.TaskType, wcfg, handler, obs, zapLog))
	}

	zapLog.Info("All workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		if w != nil {
			w.Stop(shutdownCtx)
		}
	}

	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func startWorker(client *camunda.Client, taskType string, wcfg config.WorkerConfig, handler camunda.JobHandler, obs *observability.Observability, log *zap.Logger) *camunda.CamundaWorker {
	w := camunda.NewWorker(client.GetClient(), taskType, wcfg.MaxJobsActive, config.GetDuration(wcfg.Timeout), handler, obs, log)
	w.Start()

	log.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", wcfg.MaxJobsActive),
		zap.Int("timeout_ms", wcfg.Timeout),
	)
	return w
}
