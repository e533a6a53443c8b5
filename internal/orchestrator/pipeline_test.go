package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/shaiso/Careerflow/internal/aiengine"
	"github.com/shaiso/Careerflow/internal/domain"
	"github.com/shaiso/Careerflow/internal/engine"
)

func echoEngine() aiengine.Engine {
	return aiengine.EngineFunc(func(_ context.Context, req aiengine.Request) (*domain.AgentOutput, error) {
		return &domain.AgentOutput{Output: "out:" + req.Role.Key(), Model: "stub"}, nil
	})
}

func mustBuild(t *testing.T, resume string) *Pipeline {
	t.Helper()
	p, err := BuildPipeline(resume)
	if err != nil {
		t.Fatalf("BuildPipeline: %v", err)
	}
	return p
}

func readyIndices(p *Pipeline) []int {
	var idx []int
	for _, task := range p.ReadyTasks() {
		idx = append(idx, task.Index)
	}
	return idx
}

// --- BuildPipeline Tests ---

func TestBuildPipeline_Shape(t *testing.T) {
	p := mustBuild(t, "Jane Doe, Go developer")

	wantRoles := []domain.Role{
		domain.RolePlanner, domain.RoleRecruiter, domain.RoleOptimizer,
		domain.RoleReviewer, domain.RoleOptimizer, domain.RoleCoach, domain.RoleInterviewer,
	}
	tasks := p.Tasks()
	if len(tasks) != len(wantRoles) {
		t.Fatalf("expected %d tasks, got %d", len(wantRoles), len(tasks))
	}

	for i, task := range tasks {
		if task.Role != wantRoles[i] {
			t.Errorf("task %d: expected role %s, got %s", i, wantRoles[i], task.Role)
		}
		if task.Status != domain.TaskStatusPending {
			t.Errorf("task %d: expected pending, got %s", i, task.Status)
		}
		if task.Priority != i+1 {
			t.Errorf("task %d: expected priority %d, got %d", i, i+1, task.Priority)
		}
		if i == 0 && len(task.DependsOn) != 0 {
			t.Errorf("task 0 should have no dependencies, got %v", task.DependsOn)
		}
		if i > 0 && (len(task.DependsOn) != 1 || task.DependsOn[0] != i-1) {
			t.Errorf("task %d: expected dependency on %d, got %v", i, i-1, task.DependsOn)
		}
		_, hasResume := task.Input[engine.InputResume]
		if i < 3 && !hasResume {
			t.Errorf("task %d should carry the resume", i)
		}
		if i >= 3 && hasResume {
			t.Errorf("task %d should not carry the resume", i)
		}
	}
}

func TestBuildPipeline_EmptyResume(t *testing.T) {
	p := mustBuild(t, "")
	if p.Size() != 7 {
		t.Errorf("expected 7 tasks, got %d", p.Size())
	}
}

func TestNewPipeline_InvalidGraph(t *testing.T) {
	_, err := NewPipeline([]engine.TaskSpec{
		{Role: domain.RolePlanner, DependsOn: []int{1}},
		{Role: domain.RoleRecruiter, DependsOn: []int{0}},
	})
	if !errors.Is(err, engine.ErrCyclicDependency) {
		t.Errorf("expected ErrCyclicDependency, got %v", err)
	}
}

func TestNewPipeline_ReservedInputKey(t *testing.T) {
	for _, key := range []string{"planner", "optimizer#1"} {
		_, err := NewPipeline([]engine.TaskSpec{
			{Role: domain.RoleCoach, Input: map[string]any{key: "x"}},
		})
		if !errors.Is(err, engine.ErrReservedInputKey) {
			t.Errorf("input %q: expected ErrReservedInputKey, got %v", key, err)
		}
	}
}

func TestSnapshot(t *testing.T) {
	p := mustBuild(t, "resume")

	if _, ok := p.Snapshot(99); ok {
		t.Error("out-of-range index should not be found")
	}

	snap, ok := p.Snapshot(0)
	if !ok || snap.Status != domain.TaskStatusPending {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if _, err := p.ExecuteTask(context.Background(), p.Task(0), echoEngine()); err != nil {
		t.Fatal(err)
	}
	if snap.Status != domain.TaskStatusPending {
		t.Error("snapshot must not follow later changes")
	}
	if now, _ := p.Snapshot(0); now.Status != domain.TaskStatusCompleted {
		t.Errorf("expected completed, got %s", now.Status)
	}
}

// --- ReadyTasks Tests ---

func TestReadyTasks_Fresh(t *testing.T) {
	p := mustBuild(t, "resume")

	got := readyIndices(p)
	if len(got) != 1 || got[0] != 0 {
		t.Errorf("expected [0], got %v", got)
	}

	// Повторный вызов не меняет состояние
	if again := readyIndices(p); len(again) != 1 || again[0] != 0 {
		t.Errorf("ReadyTasks should be pure, got %v", again)
	}
}

func TestReadyTasks_AdvancesAlongChain(t *testing.T) {
	p := mustBuild(t, "resume")
	eng := echoEngine()

	for k := 0; k < p.Size(); k++ {
		ready := p.ReadyTasks()
		if len(ready) != 1 || ready[0].Index != k {
			t.Fatalf("step %d: expected ready [%d], got %v", k, k, readyIndices(p))
		}
		if _, err := p.ExecuteTask(context.Background(), ready[0], eng); err != nil {
			t.Fatalf("ExecuteTask(%d): %v", k, err)
		}
	}

	if got := p.ReadyTasks(); len(got) != 0 {
		t.Errorf("expected nothing ready after completion, got %v", readyIndices(p))
	}
	if !p.IsFinished() {
		t.Error("pipeline should be finished")
	}
	if pr := p.Progress(); pr.Percent != 100 || pr.CurrentTask != "" || pr.Running != 0 {
		t.Errorf("unexpected final progress: %+v", pr)
	}
}

func TestReadyTasks_Diamond(t *testing.T) {
	p, err := NewPipeline([]engine.TaskSpec{
		{Role: domain.RolePlanner},
		{Role: domain.RoleRecruiter, DependsOn: []int{0}},
		{Role: domain.RoleOptimizer, DependsOn: []int{0}},
		{Role: domain.RoleReviewer, DependsOn: []int{1, 2}},
	})
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	if _, err := p.ExecuteTask(context.Background(), p.Task(0), echoEngine()); err != nil {
		t.Fatalf("ExecuteTask: %v", err)
	}

	got := readyIndices(p)
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("expected [1 2], got %v", got)
	}
}

// --- ExecuteTask Tests ---

func TestExecuteTask_Context(t *testing.T) {
	p := mustBuild(t, "Senior Go engineer, 8 years")

	var captured []aiengine.Request
	eng := aiengine.EngineFunc(func(_ context.Context, req aiengine.Request) (*domain.AgentOutput, error) {
		captured = append(captured, req)
		return &domain.AgentOutput{Output: "analysis of " + req.Role.Key()}, nil
	})

	if _, err := p.ExecuteTask(context.Background(), p.Task(0), eng); err != nil {
		t.Fatalf("task 0: %v", err)
	}
	if _, err := p.ExecuteTask(context.Background(), p.Task(1), eng); err != nil {
		t.Fatalf("task 1: %v", err)
	}

	first := captured[0]
	if first.PreviousOutput != "" {
		t.Errorf("root task should have no previous output, got %q", first.PreviousOutput)
	}

	second := captured[1]
	if second.Role != domain.RoleRecruiter {
		t.Errorf("expected recruiter, got %s", second.Role)
	}
	if second.PreviousOutput != "analysis of planner" {
		t.Errorf("unexpected previous output: %q", second.PreviousOutput)
	}

	var ctxMap map[string]any
	if err := json.Unmarshal([]byte(second.Context), &ctxMap); err != nil {
		t.Fatalf("context is not JSON: %v", err)
	}
	if ctxMap[engine.InputResume] != "Senior Go engineer, 8 years" {
		t.Errorf("context should carry the resume, got %v", ctxMap[engine.InputResume])
	}
	planner, ok := ctxMap["planner"].(map[string]any)
	if !ok {
		t.Fatalf("context should carry planner output, got %v", ctxMap)
	}
	if planner["output"] != "analysis of planner" {
		t.Errorf("unexpected planner output in context: %v", planner["output"])
	}
}

func TestExecuteTask_ContextDeterministic(t *testing.T) {
	var contexts []string
	eng := aiengine.EngineFunc(func(_ context.Context, req aiengine.Request) (*domain.AgentOutput, error) {
		contexts = append(contexts, req.Context)
		return &domain.AgentOutput{Output: "x"}, nil
	})

	for range 2 {
		p := mustBuild(t, "resume")
		if _, err := p.ExecuteTask(context.Background(), p.Task(0), eng); err != nil {
			t.Fatal(err)
		}
		if _, err := p.ExecuteTask(context.Background(), p.Task(1), eng); err != nil {
			t.Fatal(err)
		}
	}

	if contexts[1] != contexts[3] {
		t.Errorf("same state should serialize identically:\n%s\n%s", contexts[1], contexts[3])
	}
}

func TestExecuteTask_SameRoleDependencies(t *testing.T) {
	p, err := NewPipeline([]engine.TaskSpec{
		{Role: domain.RoleOptimizer},
		{Role: domain.RoleOptimizer},
		{Role: domain.RolePlanner},
		{Role: domain.RoleCoach, DependsOn: []int{0, 1, 2}},
	})
	if err != nil {
		t.Fatal(err)
	}

	outputs := []string{"draft A", "draft B", "plan"}
	var coachCtx string
	eng := aiengine.EngineFunc(func(_ context.Context, req aiengine.Request) (*domain.AgentOutput, error) {
		if req.Role == domain.RoleCoach {
			coachCtx = req.Context
			return &domain.AgentOutput{Output: "prep"}, nil
		}
		return &domain.AgentOutput{Output: "unused"}, nil
	})

	for i, out := range outputs {
		fixed := aiengine.EngineFunc(func(context.Context, aiengine.Request) (*domain.AgentOutput, error) {
			return &domain.AgentOutput{Output: out}, nil
		})
		if _, err := p.ExecuteTask(context.Background(), p.Task(i), fixed); err != nil {
			t.Fatalf("task %d: %v", i, err)
		}
	}
	if _, err := p.ExecuteTask(context.Background(), p.Task(3), eng); err != nil {
		t.Fatalf("coach: %v", err)
	}

	var ctxMap map[string]map[string]any
	if err := json.Unmarshal([]byte(coachCtx), &ctxMap); err != nil {
		t.Fatalf("context is not JSON: %v", err)
	}

	tests := []struct {
		key  string
		want string
	}{
		{key: "optimizer#0", want: "draft A"},
		{key: "optimizer#1", want: "draft B"},
		{key: "planner", want: "plan"},
	}
	for _, tt := range tests {
		if got := ctxMap[tt.key]["output"]; got != tt.want {
			t.Errorf("context[%q] = %v, want %q", tt.key, got, tt.want)
		}
	}
	if _, ok := ctxMap["optimizer"]; ok {
		t.Errorf("shared role must not use the bare key: %s", coachCtx)
	}
}

func TestExecuteTask_Failure(t *testing.T) {
	p := mustBuild(t, "resume")
	boom := errors.New("upstream unavailable")
	eng := aiengine.EngineFunc(func(context.Context, aiengine.Request) (*domain.AgentOutput, error) {
		return nil, boom
	})

	_, err := p.ExecuteTask(context.Background(), p.Task(0), eng)

	var taskErr *TaskError
	if !errors.As(err, &taskErr) {
		t.Fatalf("expected *TaskError, got %T", err)
	}
	if taskErr.Role != domain.RolePlanner || taskErr.Index != 0 {
		t.Errorf("unexpected task error: %+v", taskErr)
	}
	if !errors.Is(err, boom) {
		t.Error("TaskError should unwrap to engine error")
	}

	task := p.Tasks()[0]
	if task.Status != domain.TaskStatusFailed {
		t.Errorf("expected failed, got %s", task.Status)
	}
	if task.Error != "upstream unavailable" {
		t.Errorf("unexpected task error text: %q", task.Error)
	}

	log := p.Log()
	if len(log) != 1 || log[0].Status != domain.LogStatusFailed || log[0].Role != "planner" {
		t.Errorf("unexpected log: %+v", log)
	}
}

func TestExecuteTask_NilOutput(t *testing.T) {
	p := mustBuild(t, "resume")
	eng := aiengine.EngineFunc(func(context.Context, aiengine.Request) (*domain.AgentOutput, error) {
		return nil, nil
	})

	_, err := p.ExecuteTask(context.Background(), p.Task(0), eng)
	if !errors.Is(err, ErrNoOutput) {
		t.Errorf("expected ErrNoOutput, got %v", err)
	}
}

func TestExecuteTask_Guards(t *testing.T) {
	p := mustBuild(t, "resume")
	eng := echoEngine()

	if _, err := p.ExecuteTask(context.Background(), p.Task(1), eng); !errors.Is(err, ErrTaskNotReady) {
		t.Errorf("expected ErrTaskNotReady, got %v", err)
	}

	if _, err := p.ExecuteTask(context.Background(), p.Task(0), eng); err != nil {
		t.Fatal(err)
	}
	if _, err := p.ExecuteTask(context.Background(), p.Task(0), eng); !errors.Is(err, ErrTaskNotPending) {
		t.Errorf("expected ErrTaskNotPending, got %v", err)
	}

	foreign := &domain.Task{Index: 0, Status: domain.TaskStatusPending}
	if _, err := p.ExecuteTask(context.Background(), foreign, eng); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestExecuteTask_LogPreview(t *testing.T) {
	p := mustBuild(t, "resume")
	long := strings.Repeat("я", 250)
	eng := aiengine.EngineFunc(func(context.Context, aiengine.Request) (*domain.AgentOutput, error) {
		return &domain.AgentOutput{Output: long}, nil
	})

	if _, err := p.ExecuteTask(context.Background(), p.Task(0), eng); err != nil {
		t.Fatal(err)
	}

	entry := p.Log()[0]
	if n := len([]rune(entry.OutputPreview)); n != domain.PreviewLength {
		t.Errorf("expected preview of %d runes, got %d", domain.PreviewLength, n)
	}
	if !strings.HasPrefix(long, entry.OutputPreview) {
		t.Error("preview should be a prefix of the output")
	}
}

// --- Progress Tests ---

func TestProgress(t *testing.T) {
	p := mustBuild(t, "resume")

	pr := p.Progress()
	if pr.Total != 7 || pr.Completed != 0 || pr.Percent != 0 || pr.CurrentTask != "" {
		t.Errorf("unexpected fresh progress: %+v", pr)
	}

	for i := 0; i < 3; i++ {
		if _, err := p.ExecuteTask(context.Background(), p.Task(i), echoEngine()); err != nil {
			t.Fatal(err)
		}
	}

	pr = p.Progress()
	if pr.Completed != 3 {
		t.Errorf("expected 3 completed, got %d", pr.Completed)
	}
	if math.Abs(pr.Percent-300.0/7) > 1e-9 {
		t.Errorf("expected %.4f%%, got %.4f%%", 300.0/7, pr.Percent)
	}
}

func TestProgress_CurrentTask(t *testing.T) {
	p := mustBuild(t, "resume")

	started := make(chan struct{})
	release := make(chan struct{})
	eng := aiengine.EngineFunc(func(context.Context, aiengine.Request) (*domain.AgentOutput, error) {
		close(started)
		<-release
		return &domain.AgentOutput{Output: "done"}, nil
	})

	done := make(chan error, 1)
	go func() {
		_, err := p.ExecuteTask(context.Background(), p.Task(0), eng)
		done <- err
	}()

	<-started
	pr := p.Progress()
	if pr.Running != 1 || pr.CurrentTask != "Career Planner" {
		t.Errorf("unexpected progress while running: %+v", pr)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
}

// --- Aggregate Tests ---

func TestAggregate_Empty(t *testing.T) {
	p := mustBuild(t, "resume")

	res := p.Aggregate()
	if res.CareerAnalysis != "" || res.MockInterview != "" || res.OptimizedResume != "" {
		t.Errorf("expected empty fields, got %+v", res)
	}
	if res.ExecutionLog == nil {
		t.Error("execution log should be non-nil")
	}
}

func TestAggregate_Partial(t *testing.T) {
	p := mustBuild(t, "resume")
	if _, err := p.ExecuteTask(context.Background(), p.Task(0), echoEngine()); err != nil {
		t.Fatal(err)
	}

	res := p.Aggregate()
	if res.CareerAnalysis != "out:planner" {
		t.Errorf("unexpected career analysis: %q", res.CareerAnalysis)
	}
	if res.JobRecommendations != "" {
		t.Errorf("recruiter has not run, got %q", res.JobRecommendations)
	}
}

// --- DependencyByRole Tests ---

func TestDependencyByRole_LatestWins(t *testing.T) {
	p := mustBuild(t, "resume")

	calls := 0
	eng := aiengine.EngineFunc(func(_ context.Context, req aiengine.Request) (*domain.AgentOutput, error) {
		calls++
		return &domain.AgentOutput{Output: req.Role.Key() + "#" + string(rune('0'+calls))}, nil
	})

	if _, ok := p.DependencyByRole(domain.RoleOptimizer); ok {
		t.Error("no optimizer has completed yet")
	}

	for i := 0; i < 5; i++ {
		if _, err := p.ExecuteTask(context.Background(), p.Task(i), eng); err != nil {
			t.Fatal(err)
		}
	}

	task, ok := p.DependencyByRole(domain.RoleOptimizer)
	if !ok {
		t.Fatal("optimizer should be found")
	}
	if task.Index != 4 || task.OutputText() != "optimizer#5" {
		t.Errorf("expected second optimizer, got index %d output %q", task.Index, task.OutputText())
	}
}
