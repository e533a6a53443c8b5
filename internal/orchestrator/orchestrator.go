package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shaiso/Careerflow/internal/aiengine"
	"github.com/shaiso/Careerflow/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Config — конфигурация Orchestrator.
type Config struct {
	// Engine — AI-движок, выполняющий задачи.
	Engine aiengine.Engine

	// Workers — максимум одновременно выполняемых задач.
	// 1 (по умолчанию) — строго последовательное выполнение.
	Workers int

	// Reporter получает события прогресса.
	Reporter Reporter

	Logger *slog.Logger
}

// Orchestrator выполняет pipeline до завершения.
type Orchestrator struct {
	engine   aiengine.Engine
	workers  int
	reporter Reporter
	logger   *slog.Logger
}

// New создаёт Orchestrator.
func New(cfg Config) *Orchestrator {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Reporter == nil {
		cfg.Reporter = NopReporter{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Orchestrator{
		engine:   cfg.Engine,
		workers:  cfg.Workers,
		reporter: cfg.Reporter,
		logger:   cfg.Logger.With("component", "orchestrator"),
	}
}

// Process строит стандартный pipeline для резюме и выполняет его.
func (o *Orchestrator) Process(ctx context.Context, resume string) (*domain.Result, error) {
	p, err := BuildPipeline(resume)
	if err != nil {
		return nil, err
	}
	return o.Run(ctx, p)
}

// Run выполняет задачи pipeline, пока все не завершатся или одна не упадёт.
//
// Готовые задачи запускаются не более чем по Workers одновременно.
// Когда готовых задач нет, Run ждёт завершения выполняющихся.
// После первой ошибки новые задачи не запускаются, уже запущенные
// дорабатывают, и возвращается *PipelineError с частичным результатом.
func (o *Orchestrator) Run(ctx context.Context, p *Pipeline) (*domain.Result, error) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return nil, ErrAlreadyStarted
	}
	p.started = true
	p.mu.Unlock()

	start := time.Now()
	logger := o.logger.With("pipeline_id", p.ID)
	logger.Info("pipeline started", "tasks", p.Size(), "workers", o.workers)

	// Отмена context будит цикл ожидания
	stop := context.AfterFunc(ctx, func() {
		p.mu.Lock()
		p.cond.Broadcast()
		p.mu.Unlock()
	})
	defer stop()

	var g errgroup.Group
	g.SetLimit(o.workers)

	runErr := o.dispatch(ctx, p, &g, logger)
	_ = g.Wait()

	return o.complete(ctx, p, runErr, time.Since(start), logger)
}

// dispatch — основной цикл: запускает готовые задачи и ждёт изменений.
func (o *Orchestrator) dispatch(ctx context.Context, p *Pipeline, g *errgroup.Group, logger *slog.Logger) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrCancelled, err)
		}
		if p.failedLocked() != nil {
			return nil
		}
		if p.allCompletedLocked() {
			return nil
		}

		ready := p.readyLocked()
		running := p.progressLocked().Running
		slots := o.workers - running

		if len(ready) == 0 || slots <= 0 {
			if running == 0 {
				logger.Error("pipeline deadlock", "progress", p.progressLocked())
				return ErrDeadlock
			}
			p.cond.Wait()
			continue
		}

		if len(ready) > slots {
			ready = ready[:slots]
		}

		type job struct {
			task *domain.Task
			req  aiengine.Request
		}
		jobs := make([]job, 0, len(ready))
		for _, t := range ready {
			req, err := p.beginLocked(t)
			if err != nil {
				// Готовая задача всегда должна стартовать
				return fmt.Errorf("begin task %d: %w", t.Index, err)
			}
			jobs = append(jobs, job{task: t, req: req})
		}
		progress := p.progressLocked()

		// Запуск горутин без блокировки: g.Go может ждать освобождения слота
		p.mu.Unlock()
		for _, j := range jobs {
			o.reporter.TaskStarted(ctx, domain.TaskEvent{PipelineID: p.ID, Task: *j.task, Progress: progress})
			logger.Info("task started", "task_index", j.task.Index, "role", j.task.Role.Key())

			g.Go(func() error {
				o.execute(ctx, p, j.task, j.req, logger)
				return nil
			})
		}
		p.mu.Lock()
	}
}

// execute вызывает движок для уже запущенной задачи и фиксирует результат.
func (o *Orchestrator) execute(ctx context.Context, p *Pipeline, task *domain.Task, req aiengine.Request, logger *slog.Logger) {
	out, err := o.engine.Think(ctx, req)
	_, err = p.finish(task, out, err)

	p.mu.Lock()
	snapshot := *task
	progress := p.progressLocked()
	p.mu.Unlock()

	if err != nil {
		logger.Error("task failed", "task_index", task.Index, "role", task.Role.Key(), "error", err)
	} else {
		logger.Info("task completed", "task_index", task.Index, "role", task.Role.Key(),
			"duration", snapshot.Duration(), "progress", progress.Percent)
	}

	o.reporter.TaskFinished(ctx, domain.TaskEvent{PipelineID: p.ID, Task: snapshot, Progress: progress, Err: err})
}

// complete формирует итог выполнения и уведомляет репортёры.
func (o *Orchestrator) complete(ctx context.Context, p *Pipeline, runErr error, elapsed time.Duration, logger *slog.Logger) (*domain.Result, error) {
	p.mu.Lock()
	failed := p.failedLocked()
	result := p.aggregateLocked()
	progress := p.progressLocked()
	var (
		failedTask domain.Task
		failedErr  error
	)
	if failed != nil {
		failedTask = *failed
		failedErr = p.errs[failed.Index]
		if failedErr == nil {
			failedErr = errors.New(failed.Error)
		}
	}
	p.mu.Unlock()

	ev := domain.PipelineEvent{PipelineID: p.ID, Progress: progress, Duration: elapsed}

	var err error
	switch {
	case runErr != nil:
		err = runErr
	case failed != nil:
		err = &PipelineError{
			PipelineID: p.ID,
			Index:      failedTask.Index,
			Role:       failedTask.Role,
			Err:        failedErr,
			Partial:    result,
		}
		ev.FailedRole = failedTask.Role.Key()
	}
	ev.Err = err

	// Репортёры получают событие даже после отмены ctx
	o.reporter.PipelineFinished(context.WithoutCancel(ctx), ev)

	if err != nil {
		logger.Error("pipeline failed", "error", err, "duration", elapsed, "completed", progress.Completed)
		return nil, err
	}

	logger.Info("pipeline completed", "duration", elapsed, "tasks", progress.Total)
	return result, nil
}
