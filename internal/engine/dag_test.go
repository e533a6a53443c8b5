package engine

import (
	"errors"
	"reflect"
	"testing"

	"github.com/shaiso/Careerflow/internal/domain"
)

func statuses(n int, overrides map[int]domain.TaskStatus) []domain.TaskStatus {
	s := make([]domain.TaskStatus, n)
	for i := range s {
		s[i] = domain.TaskStatusPending
	}
	for i, st := range overrides {
		s[i] = st
	}
	return s
}

func TestBuildGraph_SimpleChain(t *testing.T) {
	specs := []TaskSpec{
		{Role: domain.RolePlanner},
		{Role: domain.RoleRecruiter, DependsOn: []int{0}},
		{Role: domain.RoleCoach, DependsOn: []int{1}},
	}

	g, err := BuildGraph(specs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if g.Size() != 3 {
		t.Errorf("expected 3 nodes, got %d", g.Size())
	}

	// Проверяем корневые узлы
	if len(g.Roots) != 1 || g.Roots[0].Index != 0 {
		t.Errorf("expected single root 0, got %v", g.Roots)
	}

	// Проверяем зависимости
	if n := g.Node(2); len(n.DependsOn) != 1 || n.DependsOn[0].Index != 1 {
		t.Error("node 2 should depend on 1")
	}

	// Проверяем топологический порядок
	for i, node := range g.Order {
		if node.Index != i {
			t.Errorf("order[%d] = %d, expected %d", i, node.Index, i)
		}
	}
}

func TestBuildGraph_Diamond(t *testing.T) {
	// 0 → 1 → 3
	// 0 → 2 → 3
	specs := []TaskSpec{
		{Role: domain.RolePlanner},
		{Role: domain.RoleRecruiter, DependsOn: []int{0}},
		{Role: domain.RoleOptimizer, DependsOn: []int{0}},
		{Role: domain.RoleCoach, DependsOn: []int{1, 2}},
	}

	g, err := BuildGraph(specs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantInDegree := []int{0, 1, 1, 2}
	for i, want := range wantInDegree {
		if got := g.Node(i).InDegree; got != want {
			t.Errorf("node %d: expected inDegree %d, got %d", i, want, got)
		}
	}
}

func TestBuildGraph_DuplicateEdge(t *testing.T) {
	specs := []TaskSpec{
		{Role: domain.RolePlanner},
		{Role: domain.RoleRecruiter, DependsOn: []int{0, 0}},
	}

	g, err := BuildGraph(specs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Node(1).InDegree != 1 {
		t.Errorf("duplicate edge should be counted once, got %d", g.Node(1).InDegree)
	}
}

func TestBuildGraph_Errors(t *testing.T) {
	tests := []struct {
		name  string
		specs []TaskSpec
		want  error
	}{
		{
			name:  "empty",
			specs: nil,
			want:  ErrEmptyGraph,
		},
		{
			name:  "unknown role",
			specs: []TaskSpec{{Role: domain.Role(42)}},
			want:  ErrUnknownRole,
		},
		{
			name:  "self dependency",
			specs: []TaskSpec{{Role: domain.RolePlanner, DependsOn: []int{0}}},
			want:  ErrSelfDependency,
		},
		{
			name:  "missing dependency",
			specs: []TaskSpec{{Role: domain.RolePlanner, DependsOn: []int{5}}},
			want:  ErrMissingDependency,
		},
		{
			name: "cycle",
			specs: []TaskSpec{
				{Role: domain.RolePlanner, DependsOn: []int{2}},
				{Role: domain.RoleRecruiter, DependsOn: []int{0}},
				{Role: domain.RoleCoach, DependsOn: []int{1}},
			},
			want: ErrCyclicDependency,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildGraph(tt.specs)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestReady(t *testing.T) {
	specs := []TaskSpec{
		{Role: domain.RolePlanner},
		{Role: domain.RoleRecruiter},
		{Role: domain.RoleOptimizer, DependsOn: []int{0}},
		{Role: domain.RoleCoach, DependsOn: []int{0, 1}},
	}

	g, err := BuildGraph(specs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Изначально готовы 0 и 1 (без зависимостей)
	if got := g.Ready(statuses(4, nil)); !reflect.DeepEqual(got, []int{0, 1}) {
		t.Errorf("expected [0 1], got %v", got)
	}

	// 0 выполняется — зависимые не готовы, сам 0 тоже не готов
	got := g.Ready(statuses(4, map[int]domain.TaskStatus{0: domain.TaskStatusRunning}))
	if !reflect.DeepEqual(got, []int{1}) {
		t.Errorf("expected [1], got %v", got)
	}

	// После завершения 0 готов 2, но не 3
	got = g.Ready(statuses(4, map[int]domain.TaskStatus{
		0: domain.TaskStatusCompleted,
		1: domain.TaskStatusRunning,
	}))
	if !reflect.DeepEqual(got, []int{2}) {
		t.Errorf("expected [2], got %v", got)
	}

	// Упавшая зависимость блокирует задачу навсегда
	got = g.Ready(statuses(4, map[int]domain.TaskStatus{
		0: domain.TaskStatusCompleted,
		1: domain.TaskStatusFailed,
		2: domain.TaskStatusCompleted,
	}))
	if len(got) != 0 {
		t.Errorf("expected no ready tasks, got %v", got)
	}
}

func TestDefaultSpecs(t *testing.T) {
	specs := DefaultSpecs("my resume")

	wantRoles := []domain.Role{
		domain.RolePlanner,
		domain.RoleRecruiter,
		domain.RoleOptimizer,
		domain.RoleReviewer,
		domain.RoleOptimizer,
		domain.RoleCoach,
		domain.RoleInterviewer,
	}

	if len(specs) != len(wantRoles) {
		t.Fatalf("expected %d tasks, got %d", len(wantRoles), len(specs))
	}

	for i, spec := range specs {
		if spec.Role != wantRoles[i] {
			t.Errorf("task %d: expected role %s, got %s", i, wantRoles[i], spec.Role)
		}
		if spec.Priority != i+1 {
			t.Errorf("task %d: expected priority %d, got %d", i, i+1, spec.Priority)
		}
		if i == 0 {
			if len(spec.DependsOn) != 0 {
				t.Errorf("planner should have no dependencies, got %v", spec.DependsOn)
			}
			continue
		}
		if !reflect.DeepEqual(spec.DependsOn, []int{i - 1}) {
			t.Errorf("task %d: expected dependency [%d], got %v", i, i-1, spec.DependsOn)
		}
	}

	for i := 0; i < 3; i++ {
		if specs[i].Input[InputResume] != "my resume" {
			t.Errorf("task %d should carry resume text", i)
		}
	}

	if _, err := BuildGraph(specs); err != nil {
		t.Fatalf("default graph must be valid: %v", err)
	}
}

func TestDependencyKey(t *testing.T) {
	tests := []struct {
		role   domain.Role
		index  int
		shared bool
		want   string
	}{
		{domain.RolePlanner, 0, false, "planner"},
		{domain.RoleOptimizer, 2, true, "optimizer#2"},
		{domain.RoleOptimizer, 4, true, "optimizer#4"},
	}
	for _, tt := range tests {
		if got := DependencyKey(tt.role, tt.index, tt.shared); got != tt.want {
			t.Errorf("DependencyKey(%s, %d, %v) = %q, want %q", tt.role, tt.index, tt.shared, got, tt.want)
		}
	}
}

func TestBuildGraph_ReservedInputKey(t *testing.T) {
	tests := []struct {
		key      string
		reserved bool
	}{
		{"planner", true},
		{"optimizer#2", true},
		{"resume", false},
		{"target_role", false},
	}
	for _, tt := range tests {
		_, err := BuildGraph([]TaskSpec{{Role: domain.RoleCoach, Input: map[string]any{tt.key: "x"}}})
		if got := errors.Is(err, ErrReservedInputKey); got != tt.reserved {
			t.Errorf("input %q: reserved = %v, want %v (err %v)", tt.key, got, tt.reserved, err)
		}
	}
}
