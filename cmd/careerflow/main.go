// Careerflow CLI — обработка резюме multi-agent pipeline.
//
// Использование:
//
//	careerflow [--json] <command> [flags]
//
// Команды:
//
//	run      Выполнить pipeline локально
//	submit   Поставить резюме в очередь воркеров
//	runs     Просмотр runs (list, show)
//	config   Конфигурация AI-движка
//	migrate  Применить миграции БД
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shaiso/Careerflow/internal/aiengine"
	"github.com/shaiso/Careerflow/internal/cli"
	"github.com/shaiso/Careerflow/internal/mq"
	"github.com/shaiso/Careerflow/internal/repo"
	"github.com/shaiso/Careerflow/internal/telemetry"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	if err := aiengine.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "careerflow",
		Short:         "Careerflow — multi-agent resume processing",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	// Логи сервисной части только в stderr и только предупреждения
	logger := telemetry.NewLogger(os.Stderr, slog.LevelWarn, "text")

	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }
	engineFn := func() (aiengine.Engine, error) { return aiengine.New(aiengine.ConfigFromEnv()) }
	backendFn := func(ctx context.Context) (*cli.Backend, error) { return openBackend(ctx, logger) }

	rootCmd.AddCommand(
		cli.NewRunCmd(engineFn, outputFn),
		cli.NewSubmitCmd(backendFn, outputFn),
		cli.NewRunsCmd(backendFn, outputFn),
		cli.NewConfigCmd(aiengine.ConfigFromEnv, outputFn),
		cli.NewMigrateCmd(repo.DSN, repo.Migrate, outputFn),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// openBackend подключает PostgreSQL и, если задан RABBITMQ_URL, RabbitMQ.
func openBackend(ctx context.Context, logger *slog.Logger) (*cli.Backend, error) {
	pool, err := repo.NewPool(ctx)
	if err != nil {
		return nil, err
	}

	b := &cli.Backend{
		Runs:  repo.NewRunRepo(pool),
		Tasks: repo.NewTaskRepo(pool),
		Close: pool.Close,
	}

	mqURL := os.Getenv("RABBITMQ_URL")
	if mqURL == "" {
		return b, nil
	}

	conn, err := mq.NewConnection(mqURL, logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, workers will pick up runs by polling", "error", err)
		return b, nil
	}

	b.Publisher = mq.NewPublisher(conn, logger)
	b.Close = func() {
		_ = conn.Close()
		pool.Close()
	}
	return b, nil
}
