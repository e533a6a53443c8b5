package mq

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shaiso/Careerflow/internal/domain"
)

// ProgressPublisher — то, что нужно ProgressReporter от Publisher.
type ProgressPublisher interface {
	PublishTaskProgress(ctx context.Context, payload TaskProgressPayload) error
}

// ProgressReporter транслирует события задач pipeline в очередь
// pipeline.progress. Ошибки публикации только логируются.
type ProgressReporter struct {
	pub    ProgressPublisher
	runID  uuid.UUID
	logger *slog.Logger
}

// NewProgressReporter создаёт ProgressReporter для одного run.
func NewProgressReporter(pub ProgressPublisher, runID uuid.UUID, logger *slog.Logger) *ProgressReporter {
	return &ProgressReporter{pub: pub, runID: runID, logger: logger}
}

func (r *ProgressReporter) TaskStarted(ctx context.Context, ev domain.TaskEvent) {
	r.publish(ctx, ev)
}

func (r *ProgressReporter) TaskFinished(ctx context.Context, ev domain.TaskEvent) {
	r.publish(ctx, ev)
}

// PipelineFinished ничего не публикует: итог run публикует worker
// после сохранения результата.
func (r *ProgressReporter) PipelineFinished(context.Context, domain.PipelineEvent) {}

func (r *ProgressReporter) publish(ctx context.Context, ev domain.TaskEvent) {
	payload := TaskProgressPayload{
		RunID:      r.runID,
		PipelineID: ev.PipelineID,
		Index:      ev.Task.Index,
		Role:       ev.Task.Role.Key(),
		Status:     string(ev.Task.Status),
		DurationMs: ev.Task.Duration().Milliseconds(),
		Progress:   ev.Progress,
	}
	if ev.Err != nil {
		payload.Error = ev.Err.Error()
	}

	if err := r.pub.PublishTaskProgress(ctx, payload); err != nil {
		r.logger.Warn("failed to publish task progress",
			"run_id", r.runID,
			"role", payload.Role,
			"error", err,
		)
	}
}
