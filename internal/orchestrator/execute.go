package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"

	"github.com/shaiso/Careerflow/internal/aiengine"
	"github.com/shaiso/Careerflow/internal/domain"
	"github.com/shaiso/Careerflow/internal/engine"
)

// ExecuteTask выполняет одну готовую задачу через AI-движок.
//
// Контекст для движка — вход задачи плюс результаты всех зависимостей
// (ключи — engine.DependencyKey). Результат последней зависимости
// передаётся отдельно как результат предыдущего шага.
//
// При ошибке движка задача переходит в failed, в журнал пишется запись
// со статусом failed, ошибка возвращается как *TaskError.
func (p *Pipeline) ExecuteTask(ctx context.Context, task *domain.Task, eng aiengine.Engine) (*domain.AgentOutput, error) {
	p.mu.Lock()
	req, err := p.beginLocked(task)
	p.mu.Unlock()
	if err != nil {
		return nil, err
	}

	out, err := eng.Think(ctx, req)
	return p.finish(task, out, err)
}

// beginLocked проверяет готовность задачи, переводит её в running
// и собирает запрос к движку.
func (p *Pipeline) beginLocked(task *domain.Task) (aiengine.Request, error) {
	if !p.owns(task) {
		return aiengine.Request{}, ErrTaskNotFound
	}
	if task.Status != domain.TaskStatusPending {
		return aiengine.Request{}, fmt.Errorf("%w: task %d is %s", ErrTaskNotPending, task.Index, task.Status)
	}
	for _, dep := range task.DependsOn {
		if p.tasks[dep].Status != domain.TaskStatusCompleted {
			return aiengine.Request{}, fmt.Errorf("%w: task %d waits for %d", ErrTaskNotReady, task.Index, dep)
		}
	}

	req, err := p.requestLocked(task)
	if err != nil {
		return aiengine.Request{}, err
	}

	task.MarkRunning()
	p.cond.Broadcast()
	return req, nil
}

// requestLocked собирает контекст выполнения задачи.
//
// Контекст сериализуется в JSON: encoding/json сортирует ключи map,
// поэтому одинаковое состояние даёт одинаковую строку.
func (p *Pipeline) requestLocked(task *domain.Task) (aiengine.Request, error) {
	execCtx := make(map[string]any, len(task.Input)+len(task.DependsOn))
	maps.Copy(execCtx, task.Input)

	// Несколько зависимостей одной роли получают ключи по индексу
	seen := make(map[int]bool, len(task.DependsOn))
	perRole := make(map[domain.Role]int, len(task.DependsOn))
	for _, dep := range task.DependsOn {
		if !seen[dep] {
			seen[dep] = true
			perRole[p.tasks[dep].Role]++
		}
	}

	var previous string
	for _, dep := range task.DependsOn {
		d := p.tasks[dep]
		execCtx[engine.DependencyKey(d.Role, d.Index, perRole[d.Role] > 1)] = d.Output
		previous = d.OutputText()
	}

	data, err := json.Marshal(execCtx)
	if err != nil {
		return aiengine.Request{}, fmt.Errorf("marshal context of task %d: %w", task.Index, err)
	}

	return aiengine.Request{
		Role:           task.Role,
		Context:        string(data),
		PreviousOutput: previous,
	}, nil
}

// finish записывает результат движка в задачу и журнал.
func (p *Pipeline) finish(task *domain.Task, out *domain.AgentOutput, thinkErr error) (*domain.AgentOutput, error) {
	if thinkErr == nil && out == nil {
		thinkErr = ErrNoOutput
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	defer p.cond.Broadcast()

	if thinkErr != nil {
		task.MarkFailed(thinkErr.Error())
		p.errs[task.Index] = thinkErr
		p.log = append(p.log, domain.LogEntry{
			Role:     task.Role.Key(),
			Status:   domain.LogStatusFailed,
			Duration: task.Duration(),
			Error:    thinkErr.Error(),
		})
		return nil, &TaskError{Index: task.Index, Role: task.Role, Err: thinkErr}
	}

	task.MarkCompleted(out)
	p.arrivals = append(p.arrivals, task.Index)
	p.log = append(p.log, domain.LogEntry{
		Role:          task.Role.Key(),
		Status:        domain.LogStatusSuccess,
		Duration:      task.Duration(),
		OutputPreview: domain.Preview(out.Output),
	})
	return out, nil
}
