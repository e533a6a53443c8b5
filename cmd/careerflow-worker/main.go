// Careerflow Worker — выполняет pipeline для поставленных в очередь резюме.
//
// Worker:
//   - Получает resume.pending из RabbitMQ (и подбирает PENDING runs polling'ом)
//   - Выполняет pipeline из семи задач через AI-движок
//   - Сохраняет снимки задач и агрегированный результат в PostgreSQL
//   - Публикует task.progress и pipeline.completed
//
// Workers масштабируются горизонтально.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Careerflow/internal/aiengine"
	"github.com/shaiso/Careerflow/internal/mq"
	"github.com/shaiso/Careerflow/internal/repo"
	"github.com/shaiso/Careerflow/internal/telemetry"
	"github.com/shaiso/Careerflow/internal/worker"
)

func main() {
	_ = aiengine.LoadDotEnv()

	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting careerflow-worker")

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// AI engine
	engCfg := aiengine.ConfigFromEnv()
	eng, err := aiengine.New(engCfg)
	if err != nil {
		logger.Error("failed to create ai engine", "error", err)
		os.Exit(1)
	}
	logger.Info("ai engine configured", "provider", engCfg.Provider, "model", engCfg.Model)

	// Миграции (опционально)
	if os.Getenv("DB_MIGRATE") == "true" {
		version, err := repo.Migrate(repo.DSN())
		if err != nil {
			logger.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
		logger.Info("database migrated", "version", version)
	}

	// DB pool
	pool, err := repo.NewPool(ctx)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("database connected")

	// RabbitMQ
	var publisher *mq.Publisher
	var mqConn *mq.Connection
	mqURL := os.Getenv("RABBITMQ_URL")
	if mqURL == "" {
		mqURL = mq.DefaultURL()
	}

	mqConn, err = mq.NewConnection(mqURL, logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, running in polling-only mode", "error", err)
		mqConn = nil
	} else {
		defer mqConn.Close()
		logger.Info("RabbitMQ connected")

		// Создаём топологию
		if err := mq.SetupTopology(ctx, mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}

		publisher = mq.NewPublisher(mqConn, logger)
	}

	cfg := worker.Config{
		Runs:            repo.NewRunRepo(pool),
		Tasks:           repo.NewTaskRepo(pool),
		Conn:            mqConn,
		Engine:          eng,
		Reporter:        telemetry.NewMetrics(nil),
		Concurrency:     envInt("WORKER_CONCURRENCY", 0),
		PipelineWorkers: envInt("PIPELINE_WORKERS", 0),
		Logger:          logger,
	}
	// nil *mq.Publisher в интерфейсе не равен nil
	if publisher != nil {
		cfg.Publisher = publisher
	}

	w := worker.New(cfg)

	// Запускаем worker
	if err := w.Start(ctx); err != nil {
		logger.Error("failed to start worker", "error", err)
		os.Exit(1)
	}

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	port := ":8082"
	if v := os.Getenv("WORKER_PORT"); v != "" {
		port = ":" + v
	}

	go func() {
		logger.Info("listening", "addr", port)
		if err := http.ListenAndServe(port, mux); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()

	// Останавливаем worker
	w.Stop()
	logger.Info("careerflow-worker stopped")
}

// envInt читает целое из окружения; пустое или невалидное значение — def.
func envInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}
