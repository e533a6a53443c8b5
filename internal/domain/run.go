package domain

import (
	"time"

	"github.com/google/uuid"
)

// Run — запрос на обработку одного резюме.
//
// Run создаётся через CLI (careerflow submit) и выполняется Worker'ом.
// Каждый run получает свой свежий pipeline; после завершения
// в run сохраняется агрегированный результат или ошибка.
type Run struct {
	// ID — уникальный идентификатор run.
	ID uuid.UUID `json:"id"`

	// Status — текущий статус выполнения.
	Status RunStatus `json:"status"`

	// Resume — исходный текст резюме.
	Resume string `json:"resume"`

	// Result — агрегированный результат (только для SUCCEEDED).
	Result *Result `json:"result,omitempty"`

	// Error — текст ошибки, если run завершился с FAILED.
	Error string `json:"error,omitempty"`

	// FailedRole — роль упавшей задачи.
	FailedRole string `json:"failed_role,omitempty"`

	// StartedAt — время начала выполнения.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// FinishedAt — время завершения.
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// CreatedAt — время создания run.
	CreatedAt time.Time `json:"created_at"`
}

// NewRun создаёт run в статусе PENDING.
func NewRun(resume string) *Run {
	return &Run{
		ID:        uuid.New(),
		Status:    RunStatusPending,
		Resume:    resume,
		CreatedAt: time.Now(),
	}
}

// Duration возвращает продолжительность выполнения.
// Возвращает 0, если run ещё не завершён.
func (r *Run) Duration() time.Duration {
	if r.StartedAt == nil || r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(*r.StartedAt)
}

// IsFinished возвращает true, если run завершён (в любом статусе).
func (r *Run) IsFinished() bool {
	return r.Status.IsTerminal()
}

// MarkRunning переводит run в статус RUNNING.
func (r *Run) MarkRunning() {
	now := time.Now()
	r.Status = RunStatusRunning
	r.StartedAt = &now
}

// MarkPending возвращает run в очередь (например, при остановке воркера).
func (r *Run) MarkPending() {
	r.Status = RunStatusPending
	r.StartedAt = nil
	r.FinishedAt = nil
	r.Error = ""
	r.FailedRole = ""
}

// MarkSucceeded переводит run в статус SUCCEEDED с результатом.
func (r *Run) MarkSucceeded(result *Result) {
	now := time.Now()
	r.Status = RunStatusSucceeded
	r.FinishedAt = &now
	r.Result = result
}

// MarkFailed переводит run в статус FAILED с ошибкой.
func (r *Run) MarkFailed(role, err string) {
	now := time.Now()
	r.Status = RunStatusFailed
	r.FinishedAt = &now
	r.FailedRole = role
	r.Error = err
}
