package orchestrator

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shaiso/Careerflow/internal/domain"
)

// Ошибки оркестратора.
var (
	// ErrPipelineFailed — одна из задач pipeline упала.
	ErrPipelineFailed = errors.New("pipeline failed")

	// ErrDeadlock — нет готовых и выполняющихся задач, но pipeline не завершён.
	ErrDeadlock = errors.New("pipeline deadlock: no task ready or running")

	// ErrCancelled — выполнение прервано через context.
	ErrCancelled = errors.New("pipeline cancelled")

	// ErrAlreadyStarted — pipeline уже запускался (повторный запуск не поддерживается).
	ErrAlreadyStarted = errors.New("pipeline already started")

	// ErrTaskNotPending — задача не в статусе pending.
	ErrTaskNotPending = errors.New("task is not pending")

	// ErrTaskNotReady — зависимости задачи ещё не завершены.
	ErrTaskNotReady = errors.New("task dependencies not completed")

	// ErrTaskNotFound — задача не принадлежит pipeline.
	ErrTaskNotFound = errors.New("task not found in pipeline")

	// ErrNoOutput — AI-движок вернул nil без ошибки.
	ErrNoOutput = errors.New("engine returned no output")
)

// TaskError — ошибка выполнения одной задачи.
type TaskError struct {
	Index int
	Role  domain.Role
	Err   error
}

// Error реализует интерфейс error.
func (e *TaskError) Error() string {
	return fmt.Sprintf("task %d (%s): %v", e.Index, e.Role.Key(), e.Err)
}

// Unwrap возвращает ошибку AI-движка.
func (e *TaskError) Unwrap() error {
	return e.Err
}

// PipelineError — ошибка всего pipeline: упавшая задача и частичный результат.
//
// Partial содержит агрегацию только завершённых задач и не является
// успешным результатом.
type PipelineError struct {
	PipelineID uuid.UUID
	Index      int
	Role       domain.Role
	Err        error
	Partial    *domain.Result
}

// Error реализует интерфейс error.
func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline failed at %s (task %d): %v", e.Role.Key(), e.Index, e.Err)
}

// Unwrap возвращает ErrPipelineFailed и исходную ошибку задачи.
func (e *PipelineError) Unwrap() []error {
	return []error{ErrPipelineFailed, e.Err}
}
