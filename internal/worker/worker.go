package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Careerflow/internal/aiengine"
	"github.com/shaiso/Careerflow/internal/domain"
	"github.com/shaiso/Careerflow/internal/mq"
	"github.com/shaiso/Careerflow/internal/orchestrator"
)

// Default configuration values.
const (
	defaultPollInterval    = 10 * time.Second
	defaultBatchSize       = 20
	defaultConcurrency     = 2
	defaultPipelineWorkers = 1
	finalizeTimeout        = 10 * time.Second
)

// RunStore — хранилище runs.
type RunStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Run, error)
	ListPending(ctx context.Context, limit int) ([]domain.Run, error)
	Claim(ctx context.Context, run *domain.Run) error
	Update(ctx context.Context, run *domain.Run) error
	Release(ctx context.Context, run *domain.Run) error
}

// TaskStore — хранилище снимков задач.
type TaskStore interface {
	Save(ctx context.Context, runID uuid.UUID, task domain.Task) error
}

// EventPublisher — публикация событий выполнения.
type EventPublisher interface {
	mq.ProgressPublisher
	PublishPipelineCompleted(ctx context.Context, payload mq.PipelineCompletedPayload) error
	PublishResumePending(ctx context.Context, runID uuid.UUID) error
}

// Worker обрабатывает run'ы из очереди и БД.
type Worker struct {
	runs      RunStore
	tasks     TaskStore
	publisher EventPublisher
	conn      *mq.Connection
	engine    aiengine.Engine
	reporter  orchestrator.Reporter

	pollInterval    time.Duration
	batchSize       int
	concurrency     int
	pipelineWorkers int

	// sem ограничивает число одновременно выполняемых run'ов
	sem chan struct{}

	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	stopped    bool
	stoppedMu  sync.RWMutex
}

// Config — конфигурация Worker.
type Config struct {
	// Storage
	Runs  RunStore
	Tasks TaskStore // опционально

	// MQ (опционально; без Conn работает только polling)
	Publisher EventPublisher
	Conn      *mq.Connection

	// Engine — AI-движок для задач pipeline.
	Engine aiengine.Engine

	// Reporter — дополнительный репортёр (например, метрики).
	Reporter orchestrator.Reporter

	// Polling configuration
	PollInterval time.Duration // интервал polling (default: 10s)
	BatchSize    int           // run'ов за один poll (default: 20)

	// Concurrency — run'ов одновременно (default: 2).
	Concurrency int

	// PipelineWorkers — задач одного pipeline одновременно (default: 1).
	PipelineWorkers int

	Logger *slog.Logger
}

// New создаёт новый Worker.
func New(cfg Config) *Worker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.PipelineWorkers <= 0 {
		cfg.PipelineWorkers = defaultPipelineWorkers
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Worker{
		runs:            cfg.Runs,
		tasks:           cfg.Tasks,
		publisher:       cfg.Publisher,
		conn:            cfg.Conn,
		engine:          cfg.Engine,
		reporter:        cfg.Reporter,
		pollInterval:    cfg.PollInterval,
		batchSize:       cfg.BatchSize,
		concurrency:     cfg.Concurrency,
		pipelineWorkers: cfg.PipelineWorkers,
		sem:             make(chan struct{}, cfg.Concurrency),
		logger:          cfg.Logger.With("component", "worker"),
	}
}

// Start запускает consumer'ы очереди resumes.pending и polling.
func (w *Worker) Start(ctx context.Context) error {
	if w.engine == nil {
		return ErrNoEngine
	}

	ctx, cancel := context.WithCancel(ctx)
	w.cancelFunc = cancel

	w.logger.Info("starting worker",
		"poll_interval", w.pollInterval,
		"batch_size", w.batchSize,
		"concurrency", w.concurrency,
		"pipeline_workers", w.pipelineWorkers,
	)

	if w.conn != nil {
		// По consumer'у на слот: каждый обрабатывает одно сообщение за раз
		for i := 0; i < w.concurrency; i++ {
			consumer := mq.NewConsumer(w.conn, w.logger, mq.ConsumerConfig{
				Queue:    mq.QueueResumesPending,
				Handler:  w.handleResumePending,
				Prefetch: 1,
			})

			w.wg.Add(1)
			go func() {
				defer w.wg.Done()
				if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
					w.logger.Error("resume consumer error", "error", err)
				}
			}()
		}
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.pollLoop(ctx)
	}()

	w.logger.Info("worker started")
	return nil
}

// Stop останавливает Worker и ждёт завершения выполняемых run'ов.
func (w *Worker) Stop() {
	w.stoppedMu.Lock()
	w.stopped = true
	w.stoppedMu.Unlock()

	w.logger.Info("stopping worker...")

	if w.cancelFunc != nil {
		w.cancelFunc()
	}
	w.wg.Wait()

	w.logger.Info("worker stopped")
}

// IsStopped проверяет, остановлен ли Worker.
func (w *Worker) IsStopped() bool {
	w.stoppedMu.RLock()
	defer w.stoppedMu.RUnlock()
	return w.stopped
}

// pollLoop — цикл polling для fallback.
func (w *Worker) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	// Первый poll сразу при старте: подхватываем run'ы, созданные пока воркер был выключен
	w.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.poll(ctx)
		}
	}
}

// poll выполняет один цикл polling.
func (w *Worker) poll(ctx context.Context) {
	runs, err := w.runs.ListPending(ctx, w.batchSize)
	if err != nil {
		w.logger.Error("failed to list pending runs", "error", err)
		return
	}
	if len(runs) == 0 {
		return
	}

	w.logger.Debug("poll found pending runs", "count", len(runs))

	var wg sync.WaitGroup
	for _, run := range runs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := w.ProcessRun(ctx, run.ID)
			if err != nil && !errors.Is(err, ErrRunNotPending) && !errors.Is(err, ErrWorkerStopped) {
				w.logger.Error("failed to process run from poll", "run_id", run.ID, "error", err)
			}
		}()
	}
	wg.Wait()
}

// acquire занимает слот выполнения или возвращает ошибку при отмене ctx.
func (w *Worker) acquire(ctx context.Context) error {
	select {
	case w.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrWorkerStopped, ctx.Err())
	}
}

func (w *Worker) release() {
	<-w.sem
}
