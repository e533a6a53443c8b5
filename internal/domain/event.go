package domain

import (
	"time"

	"github.com/google/uuid"
)

// TaskEvent — событие о начале или завершении задачи pipeline.
type TaskEvent struct {
	PipelineID uuid.UUID
	Task       Task
	Progress   Progress
	Err        error
}

// PipelineEvent — событие о завершении всего pipeline.
type PipelineEvent struct {
	PipelineID uuid.UUID
	Progress   Progress
	Duration   time.Duration
	FailedRole string
	Err        error
}

// Succeeded возвращает true, если pipeline завершился без ошибки.
func (e PipelineEvent) Succeeded() bool {
	return e.Err == nil
}
