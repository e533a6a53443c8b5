package orchestrator

import "github.com/shaiso/Careerflow/internal/domain"

// Aggregate собирает результаты завершённых задач в Result.
//
// Для повторяющейся роли публикуется результат, завершившийся последним;
// все результаты сохраняются в ByRole в порядке поступления.
// Роль без завершённой задачи даёт пустую строку.
func (p *Pipeline) Aggregate() *domain.Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.aggregateLocked()
}

func (p *Pipeline) aggregateLocked() *domain.Result {
	latest := make(map[domain.Role]string)
	byRole := make(map[string][]string)

	for _, idx := range p.arrivals {
		t := p.tasks[idx]
		text := t.OutputText()
		latest[t.Role] = text
		byRole[t.Role.Key()] = append(byRole[t.Role.Key()], text)
	}

	return &domain.Result{
		CareerAnalysis:     latest[domain.RolePlanner],
		JobRecommendations: latest[domain.RoleRecruiter],
		OptimizedResume:    latest[domain.RoleOptimizer],
		InterviewPrep:      latest[domain.RoleCoach],
		MockInterview:      latest[domain.RoleInterviewer],
		ExecutionLog:       append([]domain.LogEntry{}, p.log...),
		ByRole:             byRole,
	}
}
