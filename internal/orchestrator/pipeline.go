package orchestrator

import (
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Careerflow/internal/domain"
	"github.com/shaiso/Careerflow/internal/engine"
)

// Pipeline — один запуск обработки резюме: граф задач и их состояние.
//
// Все изменения задач и журнала идут под mu. Ожидание изменений — через cond.
type Pipeline struct {
	ID        uuid.UUID
	CreatedAt time.Time

	graph *engine.Graph

	mu       sync.Mutex
	cond     *sync.Cond
	tasks    []*domain.Task
	log      []domain.LogEntry
	arrivals []int // индексы завершённых задач в порядке завершения
	errs     map[int]error
	started  bool
}

// BuildPipeline строит стандартный pipeline из семи задач для резюме.
func BuildPipeline(resume string) (*Pipeline, error) {
	return NewPipeline(engine.DefaultSpecs(resume))
}

// NewPipeline строит pipeline из произвольного набора задач.
func NewPipeline(specs []engine.TaskSpec) (*Pipeline, error) {
	g, err := engine.BuildGraph(specs)
	if err != nil {
		return nil, fmt.Errorf("build graph: %w", err)
	}

	p := &Pipeline{
		ID:        uuid.New(),
		CreatedAt: time.Now(),
		graph:     g,
		tasks:     make([]*domain.Task, len(g.Nodes)),
		log:       make([]domain.LogEntry, 0, len(g.Nodes)),
		errs:      make(map[int]error),
	}
	p.cond = sync.NewCond(&p.mu)

	for i, node := range g.Nodes {
		input := make(map[string]any, len(node.Spec.Input))
		maps.Copy(input, node.Spec.Input)

		p.tasks[i] = &domain.Task{
			Index:     i,
			Role:      node.Spec.Role,
			Input:     input,
			DependsOn: append([]int(nil), node.Spec.DependsOn...),
			Priority:  node.Spec.Priority,
			Status:    domain.TaskStatusPending,
		}
	}

	return p, nil
}

// Size возвращает количество задач.
func (p *Pipeline) Size() int {
	return len(p.tasks)
}

// Task возвращает задачу по индексу (живой указатель) или nil.
//
// Указатель нужен для ExecuteTask. Поля задачи меняются под блокировкой
// pipeline, поэтому во время Run читайте состояние через Snapshot.
func (p *Pipeline) Task(index int) *domain.Task {
	if index < 0 || index >= len(p.tasks) {
		return nil
	}
	return p.tasks[index]
}

// Snapshot возвращает копию задачи по индексу.
func (p *Pipeline) Snapshot(index int) (domain.Task, bool) {
	if index < 0 || index >= len(p.tasks) {
		return domain.Task{}, false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return *p.tasks[index], true
}

// Tasks возвращает копию состояния всех задач.
func (p *Pipeline) Tasks() []domain.Task {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]domain.Task, len(p.tasks))
	for i, t := range p.tasks {
		out[i] = *t
	}
	return out
}

// ReadyTasks возвращает pending-задачи, все зависимости которых завершены.
//
// Порядок — по индексу задачи. Состояние не меняется.
func (p *Pipeline) ReadyTasks() []*domain.Task {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.readyLocked()
}

func (p *Pipeline) readyLocked() []*domain.Task {
	idx := p.graph.Ready(p.statusesLocked())
	ready := make([]*domain.Task, len(idx))
	for i, n := range idx {
		ready[i] = p.tasks[n]
	}
	return ready
}

func (p *Pipeline) statusesLocked() []domain.TaskStatus {
	st := make([]domain.TaskStatus, len(p.tasks))
	for i, t := range p.tasks {
		st[i] = t.Status
	}
	return st
}

// Progress возвращает снимок прогресса.
func (p *Pipeline) Progress() domain.Progress {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.progressLocked()
}

func (p *Pipeline) progressLocked() domain.Progress {
	pr := domain.Progress{Total: len(p.tasks)}
	for _, t := range p.tasks {
		switch t.Status {
		case domain.TaskStatusCompleted:
			pr.Completed++
		case domain.TaskStatusRunning:
			pr.Running++
			if pr.CurrentTask == "" {
				pr.CurrentTask = t.Role.Title()
			}
		case domain.TaskStatusFailed:
			pr.Failed++
		}
	}
	if pr.Total > 0 {
		pr.Percent = float64(pr.Completed) / float64(pr.Total) * 100
	}
	return pr
}

// Log возвращает копию журнала выполнения.
func (p *Pipeline) Log() []domain.LogEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.LogEntry(nil), p.log...)
}

// DependencyByRole возвращает последний завершённый экземпляр задачи с ролью.
//
// Для повторяющихся ролей (optimizer) выигрывает экземпляр, завершившийся
// позже. Возвращает копию или false, если такой задачи нет.
func (p *Pipeline) DependencyByRole(role domain.Role) (domain.Task, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := len(p.arrivals) - 1; i >= 0; i-- {
		t := p.tasks[p.arrivals[i]]
		if t.Role == role {
			return *t, true
		}
	}
	return domain.Task{}, false
}

// IsFinished возвращает true, если все задачи завершены или одна упала.
func (p *Pipeline) IsFinished() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.allCompletedLocked() || p.failedLocked() != nil
}

func (p *Pipeline) allCompletedLocked() bool {
	for _, t := range p.tasks {
		if t.Status != domain.TaskStatusCompleted {
			return false
		}
	}
	return true
}

func (p *Pipeline) failedLocked() *domain.Task {
	for _, t := range p.tasks {
		if t.Status == domain.TaskStatusFailed {
			return t
		}
	}
	return nil
}

func (p *Pipeline) owns(task *domain.Task) bool {
	return task != nil && task.Index >= 0 && task.Index < len(p.tasks) && p.tasks[task.Index] == task
}
