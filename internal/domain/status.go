package domain

import (
	"fmt"
	"strings"
)

// RunStatus — статус обработки резюме (run).
//
// Жизненный цикл:
//
//	PENDING → RUNNING → SUCCEEDED
//	                  ↘ FAILED
type RunStatus string

const (
	// RunStatusPending — run создан и ждёт воркера.
	RunStatusPending RunStatus = "PENDING"

	// RunStatusRunning — pipeline выполняется.
	RunStatusRunning RunStatus = "RUNNING"

	// RunStatusSucceeded — все задачи pipeline завершены, результат сохранён.
	RunStatusSucceeded RunStatus = "SUCCEEDED"

	// RunStatusFailed — одна из задач упала, run прерван.
	RunStatusFailed RunStatus = "FAILED"
)

// IsTerminal возвращает true, если статус финальный (run завершён).
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusSucceeded, RunStatusFailed:
		return true
	default:
		return false
	}
}

// TaskStatus — статус задачи внутри pipeline.
//
// Жизненный цикл:
//
//	pending → running → completed
//	                  ↘ failed
//
// completed и failed — финальные, задача никогда не возвращается в pending.
type TaskStatus string

const (
	// TaskStatusPending — задача ждёт своих зависимостей.
	TaskStatusPending TaskStatus = "pending"

	// TaskStatusRunning — задача выполняется AI-движком.
	TaskStatusRunning TaskStatus = "running"

	// TaskStatusCompleted — задача успешно завершена, Output заполнен.
	TaskStatusCompleted TaskStatus = "completed"

	// TaskStatusFailed — AI-движок вернул ошибку.
	TaskStatusFailed TaskStatus = "failed"
)

// IsTerminal возвращает true, если статус финальный.
func (s TaskStatus) IsTerminal() bool {
	switch s {
	case TaskStatusCompleted, TaskStatusFailed:
		return true
	default:
		return false
	}
}

// String возвращает строковое представление TaskStatus.
func (s TaskStatus) String() string {
	return string(s)
}

// ParseRunStatus парсит строку в RunStatus (регистр не важен).
func ParseRunStatus(s string) (RunStatus, error) {
	switch st := RunStatus(strings.ToUpper(s)); st {
	case RunStatusPending, RunStatusRunning, RunStatusSucceeded, RunStatusFailed:
		return st, nil
	default:
		return "", fmt.Errorf("unknown run status %q", s)
	}
}
