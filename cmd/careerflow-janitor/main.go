// Careerflow Janitor — обслуживание хранилища runs по расписанию.
//
// Janitor:
//   - Удаляет завершённые runs старше RETENTION_MAX_AGE
//   - Переводит в FAILED runs, зависшие в RUNNING дольше RETENTION_STALE_AFTER
//
// Несколько экземпляров безопасны: проход выполняет тот,
// кто взял advisory lock в PostgreSQL.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Careerflow/internal/repo"
	"github.com/shaiso/Careerflow/internal/retention"
	"github.com/shaiso/Careerflow/internal/telemetry"
)

func main() {
	logger := telemetry.SetupLogger()
	logger.Info("starting careerflow-janitor")

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// DB pool
	pool, err := repo.NewPool(ctx)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("database connected")

	maxAge, err := envDuration("RETENTION_MAX_AGE")
	if err != nil {
		logger.Error("invalid RETENTION_MAX_AGE", "error", err)
		os.Exit(1)
	}
	staleAfter, err := envDuration("RETENTION_STALE_AFTER")
	if err != nil {
		logger.Error("invalid RETENTION_STALE_AFTER", "error", err)
		os.Exit(1)
	}

	sweeper, err := retention.New(retention.Config{
		Store:      repo.NewRunRepo(pool),
		Schedule:   os.Getenv("RETENTION_CRON"),
		MaxAge:     maxAge,
		StaleAfter: staleAfter,
		Lock: func(ctx context.Context) (func(), bool, error) {
			return repo.TryAdvisoryLock(ctx, pool, repo.RetentionLockKey)
		},
		Logger: logger,
	})
	if err != nil {
		logger.Error("failed to create sweeper", "error", err)
		os.Exit(1)
	}

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	port := ":8083"
	if v := os.Getenv("JANITOR_PORT"); v != "" {
		port = ":" + v
	}

	go func() {
		logger.Info("listening", "addr", port)
		if err := http.ListenAndServe(port, mux); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	if err := sweeper.Run(ctx); err != nil {
		logger.Error("sweeper error", "error", err)
		os.Exit(1)
	}
	logger.Info("careerflow-janitor stopped")
}

// envDuration читает time.Duration из окружения; пустое значение — 0 (default).
func envDuration(key string) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, nil
	}
	return time.ParseDuration(v)
}
