package orchestrator

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/shaiso/Careerflow/internal/domain"
)

// Reporter получает события выполнения pipeline.
//
// Методы вызываются из горутин исполнителей и должны быть потокобезопасны.
// Ошибки репортёров не влияют на выполнение.
type Reporter interface {
	TaskStarted(ctx context.Context, ev domain.TaskEvent)
	TaskFinished(ctx context.Context, ev domain.TaskEvent)
	PipelineFinished(ctx context.Context, ev domain.PipelineEvent)
}

// NopReporter игнорирует все события.
type NopReporter struct{}

func (NopReporter) TaskStarted(context.Context, domain.TaskEvent)          {}
func (NopReporter) TaskFinished(context.Context, domain.TaskEvent)         {}
func (NopReporter) PipelineFinished(context.Context, domain.PipelineEvent) {}

// MultiReporter рассылает события нескольким репортёрам по порядку.
type MultiReporter []Reporter

func (m MultiReporter) TaskStarted(ctx context.Context, ev domain.TaskEvent) {
	for _, r := range m {
		r.TaskStarted(ctx, ev)
	}
}

func (m MultiReporter) TaskFinished(ctx context.Context, ev domain.TaskEvent) {
	for _, r := range m {
		r.TaskFinished(ctx, ev)
	}
}

func (m MultiReporter) PipelineFinished(ctx context.Context, ev domain.PipelineEvent) {
	for _, r := range m {
		r.PipelineFinished(ctx, ev)
	}
}

var (
	bold   = color.New(color.Bold).SprintFunc()
	dim    = color.New(color.Faint).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
)

// ConsoleReporter печатает прогресс в терминал.
type ConsoleReporter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsoleReporter создаёт ConsoleReporter, пишущий в w.
func NewConsoleReporter(w io.Writer) *ConsoleReporter {
	return &ConsoleReporter{w: w}
}

func (c *ConsoleReporter) TaskStarted(_ context.Context, ev domain.TaskEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "%s executing: %s %s\n", cyan("▶"), bold(ev.Task.Role.Title()), dim(fmt.Sprintf("(task %d)", ev.Task.Index)))
}

func (c *ConsoleReporter) TaskFinished(_ context.Context, ev domain.TaskEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	pct := fmt.Sprintf("[%3.0f%%]", ev.Progress.Percent)
	if ev.Err != nil {
		fmt.Fprintf(c.w, "%s failed: %s: %s %s\n", red("✗"), bold(ev.Task.Role.Title()), red(ev.Err.Error()), dim(pct))
		return
	}
	fmt.Fprintf(c.w, "%s done: %s (%s) %s\n", green("✓"), bold(ev.Task.Role.Title()),
		dim(ev.Task.Duration().Round(time.Millisecond).String()), yellow(pct))
}

func (c *ConsoleReporter) PipelineFinished(_ context.Context, ev domain.PipelineEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ev.Err != nil {
		fmt.Fprintf(c.w, "%s pipeline %s failed at %s: %v\n", red("✗"), ev.PipelineID, bold(ev.FailedRole), ev.Err)
		return
	}
	fmt.Fprintf(c.w, "%s pipeline %s completed in %s (%d/%d tasks)\n",
		green("✓"), ev.PipelineID, ev.Duration.Round(time.Millisecond), ev.Progress.Completed, ev.Progress.Total)
}
