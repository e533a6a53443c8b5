package worker

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shaiso/Careerflow/internal/domain"
)

// TaskRecorder сохраняет снимок задачи при каждом изменении статуса.
type TaskRecorder struct {
	store  TaskStore
	runID  uuid.UUID
	logger *slog.Logger
}

// NewTaskRecorder создаёт TaskRecorder для run'а.
func NewTaskRecorder(store TaskStore, runID uuid.UUID, logger *slog.Logger) *TaskRecorder {
	return &TaskRecorder{store: store, runID: runID, logger: logger}
}

func (r *TaskRecorder) TaskStarted(ctx context.Context, ev domain.TaskEvent) {
	r.save(ctx, ev.Task)
}

func (r *TaskRecorder) TaskFinished(ctx context.Context, ev domain.TaskEvent) {
	r.save(context.WithoutCancel(ctx), ev.Task)
}

func (r *TaskRecorder) PipelineFinished(context.Context, domain.PipelineEvent) {}

func (r *TaskRecorder) save(ctx context.Context, task domain.Task) {
	if err := r.store.Save(ctx, r.runID, task); err != nil {
		r.logger.Warn("failed to save task snapshot",
			"run_id", r.runID,
			"task_index", task.Index,
			"error", err,
		)
	}
}
