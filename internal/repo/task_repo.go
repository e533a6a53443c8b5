package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Careerflow/internal/domain"
)

// TaskRepo — репозиторий снимков задач pipeline.
//
// Одна строка на задачу run: (run_id, idx). Строка перезаписывается
// при каждом изменении статуса.
type TaskRepo struct {
	pool *pgxpool.Pool
}

// NewTaskRepo создаёт новый TaskRepo.
func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo {
	return &TaskRepo{pool: pool}
}

// Save вставляет или обновляет снимок задачи.
func (r *TaskRepo) Save(ctx context.Context, runID uuid.UUID, task domain.Task) error {
	var outputJSON []byte
	if task.Output != nil {
		data, err := json.Marshal(task.Output)
		if err != nil {
			return fmt.Errorf("marshal output: %w", err)
		}
		outputJSON = data
	}

	query := `
		INSERT INTO pipeline_tasks (run_id, idx, role, status, output, error, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (run_id, idx) DO UPDATE
		SET status = EXCLUDED.status, output = EXCLUDED.output, error = EXCLUDED.error,
		    started_at = EXCLUDED.started_at, finished_at = EXCLUDED.finished_at
	`
	_, err := r.pool.Exec(ctx, query,
		runID,
		task.Index,
		task.Role.Key(),
		task.Status,
		outputJSON,
		nullString(task.Error),
		task.StartedAt,
		task.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("save task %d: %w", task.Index, err)
	}
	return nil
}

// ListByRunID возвращает задачи run в порядке индексов.
func (r *TaskRepo) ListByRunID(ctx context.Context, runID uuid.UUID) ([]domain.Task, error) {
	query := `
		SELECT idx, role, status, output, error, started_at, finished_at
		FROM pipeline_tasks
		WHERE run_id = $1
		ORDER BY idx ASC
	`
	rows, err := r.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("list tasks by run_id: %w", err)
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		var (
			task       domain.Task
			role       string
			outputJSON []byte
			taskError  *string
		)
		if err := rows.Scan(&task.Index, &role, &task.Status, &outputJSON, &taskError, &task.StartedAt, &task.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}

		if task.Role, err = domain.ParseRole(role); err != nil {
			return nil, fmt.Errorf("scan task %d: %w", task.Index, err)
		}
		if outputJSON != nil {
			task.Output = &domain.AgentOutput{}
			if err := json.Unmarshal(outputJSON, task.Output); err != nil {
				return nil, fmt.Errorf("unmarshal output: %w", err)
			}
		}
		task.Error = deref(taskError)
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}
