package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestParseRole(t *testing.T) {
	for _, r := range Roles() {
		got, err := ParseRole(r.Key())
		if err != nil {
			t.Errorf("ParseRole(%q): %v", r.Key(), err)
		}
		if got != r {
			t.Errorf("ParseRole(%q) = %v, want %v", r.Key(), got, r)
		}
	}

	if _, err := ParseRole("PLANNER"); err == nil {
		t.Error("role keys are lowercase")
	}
	if Role(0).IsValid() || Role(42).IsValid() {
		t.Error("out-of-range roles should be invalid")
	}
}

func TestRole_Title(t *testing.T) {
	tests := map[Role]string{
		RolePlanner:     "Career Planner",
		RoleOptimizer:   "Resume Optimizer",
		RoleInterviewer: "Mock Interviewer",
	}
	for r, want := range tests {
		if got := r.Title(); got != want {
			t.Errorf("%s.Title() = %q, want %q", r.Key(), got, want)
		}
	}
}

func TestRole_JSON(t *testing.T) {
	data, err := json.Marshal(Task{Index: 2, Role: RoleOptimizer, Status: TaskStatusPending})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"role":"optimizer"`) {
		t.Errorf("role should be encoded by key: %s", data)
	}

	var task Task
	if err := json.Unmarshal(data, &task); err != nil {
		t.Fatal(err)
	}
	if task.Role != RoleOptimizer {
		t.Errorf("expected optimizer, got %v", task.Role)
	}

	if err := json.Unmarshal([]byte(`{"role":"astronaut"}`), &task); err == nil {
		t.Error("unknown role should fail to decode")
	}
}

func TestPreview(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int
	}{
		{"empty", "", 0},
		{"short", "hello", 5},
		{"exact", strings.Repeat("a", PreviewLength), PreviewLength},
		{"long ascii", strings.Repeat("a", 250), PreviewLength},
		{"long cyrillic", strings.Repeat("ж", 250), PreviewLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len([]rune(Preview(tt.in))); got != tt.want {
				t.Errorf("Preview length = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestTask_Lifecycle(t *testing.T) {
	task := &Task{Role: RolePlanner, Status: TaskStatusPending}

	if task.IsFinished() || task.Duration() != 0 || task.OutputText() != "" {
		t.Error("fresh task should be unfinished with no output")
	}

	task.MarkRunning()
	if task.Status != TaskStatusRunning || task.StartedAt == nil {
		t.Error("MarkRunning should set status and start time")
	}

	time.Sleep(time.Millisecond)
	task.MarkCompleted(&AgentOutput{Output: "plan"})
	if !task.IsFinished() || task.OutputText() != "plan" || task.Duration() <= 0 {
		t.Errorf("unexpected completed task: %+v", task)
	}
}

func TestRun_Lifecycle(t *testing.T) {
	run := NewRun("resume")
	if run.Status != RunStatusPending || run.IsFinished() {
		t.Fatalf("new run should be pending, got %s", run.Status)
	}

	run.MarkRunning()
	run.MarkFailed("reviewer", "timeout")

	if run.Status != RunStatusFailed || !run.IsFinished() {
		t.Errorf("expected FAILED, got %s", run.Status)
	}
	if run.FailedRole != "reviewer" || run.Error != "timeout" {
		t.Errorf("unexpected failure details: %+v", run)
	}
}

func TestParseRunStatus(t *testing.T) {
	for _, s := range []RunStatus{RunStatusPending, RunStatusRunning, RunStatusSucceeded, RunStatusFailed} {
		got, err := ParseRunStatus(string(s))
		if err != nil || got != s {
			t.Errorf("ParseRunStatus(%q) = %v, %v", s, got, err)
		}
	}
	if _, err := ParseRunStatus("DONE"); err == nil {
		t.Error("expected error for unknown status")
	}
}
