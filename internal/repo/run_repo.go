package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Careerflow/internal/domain"
)

// RunRepo — репозиторий для работы с runs.
type RunRepo struct {
	pool *pgxpool.Pool
}

// NewRunRepo создаёт новый RunRepo.
func NewRunRepo(pool *pgxpool.Pool) *RunRepo {
	return &RunRepo{pool: pool}
}

const runColumns = `id, status, resume, result, error, failed_role, started_at, finished_at, created_at`

// Create создаёт новый run.
func (r *RunRepo) Create(ctx context.Context, run *domain.Run) error {
	resultJSON, err := marshalResult(run.Result)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO runs (id, status, resume, result, error, failed_role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.pool.Exec(ctx, query,
		run.ID,
		run.Status,
		run.Resume,
		resultJSON,
		nullString(run.Error),
		nullString(run.FailedRole),
		run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// GetByID возвращает run по ID.
func (r *RunRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE id = $1`
	return scanRun(r.pool.QueryRow(ctx, query, id))
}

// List возвращает runs с фильтрацией, новые первыми.
func (r *RunRepo) List(ctx context.Context, filter RunFilter) ([]domain.Run, error) {
	query := `
		SELECT ` + runColumns + `
		FROM runs
		WHERE ($1::text IS NULL OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query,
		nullString(string(filter.Status)),
		filter.limit(),
		filter.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return collectRuns(rows)
}

// ListPending возвращает самые старые runs в статусе PENDING.
func (r *RunRepo) ListPending(ctx context.Context, limit int) ([]domain.Run, error) {
	query := `
		SELECT ` + runColumns + `
		FROM runs
		WHERE status = 'PENDING'
		ORDER BY created_at ASC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending runs: %w", err)
	}
	return collectRuns(rows)
}

// Claim атомарно переводит PENDING run в RUNNING.
//
// Если run уже взят другим воркером или завершён, возвращает ErrInvalidState.
func (r *RunRepo) Claim(ctx context.Context, run *domain.Run) error {
	run.MarkRunning()

	query := `
		UPDATE runs
		SET status = $2, started_at = $3
		WHERE id = $1 AND status = 'PENDING'
	`
	result, err := r.pool.Exec(ctx, query, run.ID, run.Status, run.StartedAt)
	if err != nil {
		return fmt.Errorf("claim run: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("claim run %s: %w", run.ID, ErrInvalidState)
	}
	return nil
}

// Update сохраняет итог выполняющегося run.
//
// Обновляется только run в статусе RUNNING: если run уже закрыт
// (например, janitor'ом как зависший), возвращается ErrInvalidState.
func (r *RunRepo) Update(ctx context.Context, run *domain.Run) error {
	resultJSON, err := marshalResult(run.Result)
	if err != nil {
		return err
	}

	query := `
		UPDATE runs
		SET status = $2, result = $3, error = $4, failed_role = $5,
		    started_at = $6, finished_at = $7
		WHERE id = $1 AND status = 'RUNNING'
	`
	result, err := r.pool.Exec(ctx, query,
		run.ID,
		run.Status,
		resultJSON,
		nullString(run.Error),
		nullString(run.FailedRole),
		run.StartedAt,
		run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if result.RowsAffected() == 0 {
		return r.missing(ctx, run.ID, "update")
	}
	return nil
}

// Release возвращает RUNNING run в PENDING, чтобы его взял другой воркер.
func (r *RunRepo) Release(ctx context.Context, run *domain.Run) error {
	query := `
		UPDATE runs
		SET status = 'PENDING', started_at = NULL, finished_at = NULL,
		    error = NULL, failed_role = NULL
		WHERE id = $1 AND status = 'RUNNING'
	`
	result, err := r.pool.Exec(ctx, query, run.ID)
	if err != nil {
		return fmt.Errorf("release run: %w", err)
	}
	if result.RowsAffected() == 0 {
		return r.missing(ctx, run.ID, "release")
	}
	run.MarkPending()
	return nil
}

// missing различает отсутствующий run и run в неподходящем статусе.
func (r *RunRepo) missing(ctx context.Context, id uuid.UUID, op string) error {
	var exists bool
	if err := r.pool.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM runs WHERE id = $1)", id).Scan(&exists); err != nil {
		return fmt.Errorf("%s run: %w", op, err)
	}
	if !exists {
		return ErrNotFound
	}
	return fmt.Errorf("%s run %s: %w", op, id, ErrInvalidState)
}

// DeleteFinishedBefore удаляет завершённые runs, закончившиеся раньше before.
// Задачи удаляются каскадно. Возвращает количество удалённых runs.
func (r *RunRepo) DeleteFinishedBefore(ctx context.Context, before time.Time) (int64, error) {
	query := `
		DELETE FROM runs
		WHERE status IN ('SUCCEEDED', 'FAILED') AND finished_at < $1
	`
	result, err := r.pool.Exec(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("delete finished runs: %w", err)
	}
	return result.RowsAffected(), nil
}

// FailStaleRunning переводит в FAILED runs, зависшие в RUNNING с момента
// раньше startedBefore. Возвращает количество закрытых runs.
func (r *RunRepo) FailStaleRunning(ctx context.Context, startedBefore time.Time, reason string) (int64, error) {
	query := `
		UPDATE runs
		SET status = 'FAILED', error = $2, finished_at = now()
		WHERE status = 'RUNNING' AND started_at < $1
	`
	result, err := r.pool.Exec(ctx, query, startedBefore, reason)
	if err != nil {
		return 0, fmt.Errorf("fail stale runs: %w", err)
	}
	return result.RowsAffected(), nil
}

// --- Helpers ---

// DefaultListLimit — лимит List по умолчанию.
const DefaultListLimit = 50

// RunFilter — параметры фильтрации runs.
type RunFilter struct {
	Status domain.RunStatus
	Limit  int
	Offset int
}

func (f RunFilter) limit() int {
	if f.Limit <= 0 {
		return DefaultListLimit
	}
	return f.Limit
}

func collectRuns(rows pgx.Rows) ([]domain.Run, error) {
	defer rows.Close()

	var runs []domain.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// scanRun сканирует одну строку в Run. pgx.Rows тоже реализует pgx.Row.
func scanRun(row pgx.Row) (*domain.Run, error) {
	var (
		run        domain.Run
		resultJSON []byte
		runError   *string
		failedRole *string
	)

	err := row.Scan(
		&run.ID,
		&run.Status,
		&run.Resume,
		&resultJSON,
		&runError,
		&failedRole,
		&run.StartedAt,
		&run.FinishedAt,
		&run.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}

	if resultJSON != nil {
		run.Result = &domain.Result{}
		if err := json.Unmarshal(resultJSON, run.Result); err != nil {
			return nil, fmt.Errorf("unmarshal result: %w", err)
		}
	}
	run.Error = deref(runError)
	run.FailedRole = deref(failedRole)

	return &run, nil
}

func marshalResult(res *domain.Result) ([]byte, error) {
	if res == nil {
		return nil, nil
	}
	data, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return data, nil
}

// nullString возвращает nil для пустой строки (для NULL в БД).
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
