package engine

import (
	"encoding/json"
	"fmt"

	"github.com/shaiso/Careerflow/internal/domain"
)

// Definition — JSON-описание пользовательского графа.
//
// Пример:
//
//	{"tasks": [
//	  {"id": "plan", "role": "planner", "use_resume": true},
//	  {"id": "jobs", "role": "recruiter", "use_resume": true, "depends_on": ["plan"]},
//	  {"id": "prep", "role": "coach", "depends_on": ["plan"]}
//	]}
type Definition struct {
	Tasks []TaskDef `json:"tasks"`
}

// TaskDef — описание одной задачи в Definition.
type TaskDef struct {
	ID        string         `json:"id"`
	Role      string         `json:"role"`
	UseResume bool           `json:"use_resume,omitempty"`
	Input     map[string]any `json:"input,omitempty"`
	DependsOn []string       `json:"depends_on,omitempty"`
	Priority  int            `json:"priority,omitempty"`
}

// Parse разбирает JSON-определение графа.
func Parse(data []byte) (*Definition, error) {
	var def Definition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}
	if len(def.Tasks) == 0 {
		return nil, ErrEmptyGraph
	}
	return &def, nil
}

// Specs валидирует определение и переводит его в TaskSpec.
// ID зависимостей разрешаются в индексы задач.
func (d *Definition) Specs(resume string) ([]TaskSpec, error) {
	if len(d.Tasks) == 0 {
		return nil, ErrEmptyGraph
	}

	index := make(map[string]int, len(d.Tasks))
	for i, t := range d.Tasks {
		if t.ID == "" {
			return nil, NewValidationError(indexID(i), "id", "task has empty ID", ErrEmptyTaskID)
		}
		if _, exists := index[t.ID]; exists {
			return nil, NewValidationError(t.ID, "id",
				fmt.Sprintf("duplicate task ID: %s", t.ID), ErrDuplicateTaskID)
		}
		index[t.ID] = i
	}

	specs := make([]TaskSpec, len(d.Tasks))
	for i, t := range d.Tasks {
		role, err := domain.ParseRole(t.Role)
		if err != nil {
			return nil, NewValidationError(t.ID, "role", err.Error(), ErrUnknownRole)
		}

		input := make(map[string]any, len(t.Input)+1)
		for k, v := range t.Input {
			input[k] = v
		}
		if t.UseResume {
			input[InputResume] = resume
		}

		deps := make([]int, 0, len(t.DependsOn))
		for _, depID := range t.DependsOn {
			if depID == t.ID {
				return nil, NewValidationError(t.ID, "depends_on",
					"task depends on itself", ErrSelfDependency)
			}
			j, ok := index[depID]
			if !ok {
				return nil, NewValidationError(t.ID, "depends_on",
					fmt.Sprintf("depends on unknown task: %s", depID), ErrMissingDependency)
			}
			deps = append(deps, j)
		}

		priority := t.Priority
		if priority == 0 {
			priority = i + 1
		}

		specs[i] = TaskSpec{
			Role:      role,
			Input:     input,
			DependsOn: deps,
			Priority:  priority,
		}
	}

	return specs, nil
}
