package worker

import "errors"

// Ошибки воркера.
var (
	// ErrRunNotFound — run не найден в БД.
	ErrRunNotFound = errors.New("run not found")

	// ErrRunNotPending — run уже взят другим воркером или завершён.
	ErrRunNotPending = errors.New("run is not in PENDING status")

	// ErrWorkerStopped — воркер остановлен.
	ErrWorkerStopped = errors.New("worker stopped")

	// ErrNoEngine — не задан AI-движок.
	ErrNoEngine = errors.New("ai engine is not configured")
)
