package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/shaiso/Careerflow/internal/aiengine"
	"github.com/shaiso/Careerflow/internal/domain"
	"github.com/shaiso/Careerflow/internal/repo"
)

// RunStore — операции с runs, нужные командам.
type RunStore interface {
	Create(ctx context.Context, run *domain.Run) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Run, error)
	List(ctx context.Context, filter repo.RunFilter) ([]domain.Run, error)
}

// TaskLister — чтение снимков задач run.
type TaskLister interface {
	ListByRunID(ctx context.Context, runID uuid.UUID) ([]domain.Task, error)
}

// ResumePublisher — постановка run в очередь воркеров.
type ResumePublisher interface {
	PublishResumePending(ctx context.Context, runID uuid.UUID) error
}

// Backend — зависимости команд submit и runs.
type Backend struct {
	Runs  RunStore
	Tasks TaskLister

	// Publisher — опционально: без него воркер подхватит run через polling.
	Publisher ResumePublisher

	// Close освобождает соединения.
	Close func()
}

// BackendFunc лениво создаёт Backend.
type BackendFunc func(ctx context.Context) (*Backend, error)

// EngineFunc лениво создаёт AI-движок.
type EngineFunc func() (aiengine.Engine, error)

// withBackend открывает Backend, вызывает fn и закрывает его.
func withBackend(ctx context.Context, backendFn BackendFunc, fn func(b *Backend) error) error {
	b, err := backendFn(ctx)
	if err != nil {
		return fmt.Errorf("open backend: %w", err)
	}
	if b.Close != nil {
		defer b.Close()
	}
	return fn(b)
}

// readResume читает резюме из файла или stdin ("-").
func readResume(path string, stdin io.Reader) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read resume from stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read resume: %w", err)
	}
	return string(data), nil
}
