package engine

import "github.com/shaiso/Careerflow/internal/domain"

// InputResume — ключ входных данных с текстом резюме.
const InputResume = "resume"

// DefaultSpecs возвращает фиксированный граф обработки резюме:
//
//	planner → recruiter → optimizer → reviewer → optimizer → coach → interviewer
//
// Внутри есть цикл доработки (optimize → review → re-optimize),
// развёрнутый в две отдельные задачи optimizer.
func DefaultSpecs(resume string) []TaskSpec {
	withResume := func() map[string]any {
		return map[string]any{InputResume: resume}
	}

	return []TaskSpec{
		// Этап 1: карьерный анализ, без зависимостей
		{Role: domain.RolePlanner, Input: withResume(), Priority: 1},
		// Этап 2: подбор вакансий
		{Role: domain.RoleRecruiter, Input: withResume(), DependsOn: []int{0}, Priority: 2},
		// Этап 3: первичная оптимизация резюме
		{Role: domain.RoleOptimizer, Input: withResume(), DependsOn: []int{1}, Priority: 3},
		// Этап 4: ревью качества
		{Role: domain.RoleReviewer, Input: map[string]any{}, DependsOn: []int{2}, Priority: 4},
		// Этап 5: доработка по замечаниям
		{Role: domain.RoleOptimizer, Input: map[string]any{}, DependsOn: []int{3}, Priority: 5},
		// Этап 6: подготовка к интервью
		{Role: domain.RoleCoach, Input: map[string]any{}, DependsOn: []int{4}, Priority: 6},
		// Этап 7: пробное интервью
		{Role: domain.RoleInterviewer, Input: map[string]any{}, DependsOn: []int{5}, Priority: 7},
	}
}
