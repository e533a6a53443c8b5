package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shaiso/Careerflow/internal/domain"
	"github.com/shaiso/Careerflow/internal/mq"
	"github.com/shaiso/Careerflow/internal/orchestrator"
	"github.com/shaiso/Careerflow/internal/repo"
	"github.com/shaiso/Careerflow/internal/telemetry"
)

// handleResumePending обрабатывает сообщение из очереди resumes.pending.
func (w *Worker) handleResumePending(ctx context.Context, delivery *mq.Delivery) error {
	payload, err := mq.ParsePayload[mq.ResumePendingPayload](&delivery.Message)
	if err != nil {
		return mq.Permanent(fmt.Errorf("parse resume.pending payload: %w", err))
	}
	if payload.RunID == uuid.Nil {
		return mq.Permanent(errors.New("resume.pending payload without run_id"))
	}

	w.logger.Debug("received resume.pending event", "run_id", payload.RunID, "redelivered", delivery.Redelivered)

	err = w.ProcessRun(ctx, payload.RunID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrRunNotPending):
		// Run уже обработан (например, через polling) — ack
		w.logger.Debug("run not processed", "run_id", payload.RunID, "reason", err)
		return nil
	case errors.Is(err, ErrRunNotFound):
		return mq.Permanent(err)
	default:
		return err
	}
}

// ProcessRun захватывает run, выполняет pipeline и сохраняет итог.
//
// Ошибка pipeline не является ошибкой ProcessRun: run сохраняется
// как FAILED. Ошибка возвращается только для проблем инфраструктуры
// и для run'ов, которые нельзя взять в работу.
func (w *Worker) ProcessRun(ctx context.Context, runID uuid.UUID) error {
	if err := w.acquire(ctx); err != nil {
		return err
	}
	defer w.release()

	run, err := w.runs.GetByID(ctx, runID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return fmt.Errorf("get run: %w", err)
	}
	if run.Status != domain.RunStatusPending {
		return fmt.Errorf("%w: %s is %s", ErrRunNotPending, runID, run.Status)
	}

	if err := w.runs.Claim(ctx, run); err != nil {
		if errors.Is(err, repo.ErrInvalidState) {
			return fmt.Errorf("%w: %s", ErrRunNotPending, runID)
		}
		return fmt.Errorf("claim run: %w", err)
	}

	logger := telemetry.WithRunID(w.logger, runID.String())
	logger.Info("run claimed")

	p, err := orchestrator.BuildPipeline(run.Resume)
	if err != nil {
		run.MarkFailed("", err.Error())
		return w.finalize(ctx, run)
	}

	orch := orchestrator.New(orchestrator.Config{
		Engine:   w.engine,
		Workers:  w.pipelineWorkers,
		Reporter: w.reporters(run.ID),
		Logger:   telemetry.WithPipelineID(logger, p.ID.String()),
	})

	result, err := orch.Run(ctx, p)
	if errors.Is(err, orchestrator.ErrCancelled) {
		logger.Info("run interrupted, returning to queue", "error", err)
		return w.requeue(ctx, run)
	}
	if err != nil {
		run.MarkFailed(failedRole(err), err.Error())
		logger.Warn("run failed", "failed_role", run.FailedRole, "error", err)
	} else {
		run.MarkSucceeded(result)
		logger.Info("run succeeded", "duration", run.Duration())
	}

	return w.finalize(ctx, run)
}

// finalize сохраняет итог run'а и публикует pipeline.completed.
// Выполняется даже при отменённом ctx, чтобы run не остался RUNNING.
func (w *Worker) finalize(ctx context.Context, run *domain.Run) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalizeTimeout)
	defer cancel()

	if err := w.runs.Update(ctx, run); err != nil {
		if errors.Is(err, repo.ErrInvalidState) {
			// Run уже закрыт janitor'ом, итог воркера отбрасывается
			w.logger.Warn("run closed while executing, result discarded", "run_id", run.ID, "status", run.Status)
			return nil
		}
		return fmt.Errorf("update run: %w", err)
	}

	if w.publisher != nil {
		payload := mq.PipelineCompletedPayload{
			RunID:      run.ID,
			Status:     string(run.Status),
			FailedRole: run.FailedRole,
			Error:      run.Error,
			DurationMs: run.Duration().Milliseconds(),
		}
		if err := w.publisher.PublishPipelineCompleted(ctx, payload); err != nil {
			w.logger.Warn("failed to publish pipeline.completed", "run_id", run.ID, "error", err)
		}
	}
	return nil
}

// requeue возвращает прерванный run в PENDING и снова ставит его в очередь.
// Без publisher run подберёт polling.
func (w *Worker) requeue(ctx context.Context, run *domain.Run) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalizeTimeout)
	defer cancel()

	if err := w.runs.Release(ctx, run); err != nil {
		if errors.Is(err, repo.ErrInvalidState) {
			w.logger.Warn("run closed while executing, not requeued", "run_id", run.ID)
			return nil
		}
		return fmt.Errorf("release run: %w", err)
	}

	if w.publisher != nil {
		if err := w.publisher.PublishResumePending(ctx, run.ID); err != nil {
			w.logger.Warn("failed to republish resume.pending", "run_id", run.ID, "error", err)
		}
	}
	return nil
}

// reporters собирает репортёры для одного run'а.
func (w *Worker) reporters(runID uuid.UUID) orchestrator.Reporter {
	var rs orchestrator.MultiReporter
	if w.tasks != nil {
		rs = append(rs, NewTaskRecorder(w.tasks, runID, w.logger))
	}
	if w.publisher != nil {
		rs = append(rs, mq.NewProgressReporter(w.publisher, runID, w.logger))
	}
	if w.reporter != nil {
		rs = append(rs, w.reporter)
	}
	return rs
}

// failedRole возвращает роль упавшей задачи, если ошибка её содержит.
func failedRole(err error) string {
	var pe *orchestrator.PipelineError
	if errors.As(err, &pe) {
		return pe.Role.Key()
	}
	return ""
}
