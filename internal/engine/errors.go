package engine

import (
	"errors"
	"strconv"
)

// Ошибки валидации графа.
var (
	// ErrEmptyGraph — граф не содержит задач.
	ErrEmptyGraph = errors.New("graph has no tasks")

	// ErrUnknownRole — роль задачи не входит в перечисление.
	ErrUnknownRole = errors.New("unknown role")

	// ErrMissingDependency — задача зависит от несуществующей задачи.
	ErrMissingDependency = errors.New("task depends on unknown task")

	// ErrCyclicDependency — обнаружен цикл в зависимостях.
	ErrCyclicDependency = errors.New("cyclic dependency detected")

	// ErrSelfDependency — задача зависит от самой себя.
	ErrSelfDependency = errors.New("task depends on itself")

	// ErrReservedInputKey — ключ входных данных совпадает с ключом зависимости.
	ErrReservedInputKey = errors.New("input key is reserved for dependency outputs")
)

// Ошибки разбора JSON-определения графа.
var (
	// ErrEmptyTaskID — задача в определении не имеет ID.
	ErrEmptyTaskID = errors.New("task has empty ID")

	// ErrDuplicateTaskID — несколько задач с одинаковым ID.
	ErrDuplicateTaskID = errors.New("duplicate task ID")

	// ErrInvalidDefinition — JSON не разбирается.
	ErrInvalidDefinition = errors.New("invalid graph definition")
)

// ValidationError — ошибка валидации с контекстом.
type ValidationError struct {
	TaskID  string // ID или индекс задачи, где произошла ошибка
	Field   string // поле, вызвавшее ошибку
	Message string // описание ошибки
	Err     error  // базовая ошибка
}

// Error реализует интерфейс error.
func (e *ValidationError) Error() string {
	if e.TaskID != "" {
		return "task " + e.TaskID + ": " + e.Message
	}
	return e.Message
}

// Unwrap возвращает базовую ошибку.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError создаёт новую ошибку валидации.
func NewValidationError(taskID, field, message string, err error) *ValidationError {
	return &ValidationError{
		TaskID:  taskID,
		Field:   field,
		Message: message,
		Err:     err,
	}
}

func indexID(i int) string {
	return "#" + strconv.Itoa(i)
}
