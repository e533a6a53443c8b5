package telemetry

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shaiso/Careerflow/internal/domain"
)

// Metrics — Prometheus метрики выполнения pipeline.
//
// Metrics реализует orchestrator.Reporter и подключается
// через MultiReporter рядом с остальными репортёрами.
type Metrics struct {
	TasksTotal     *prometheus.CounterVec
	TaskDuration   *prometheus.HistogramVec
	PipelinesTotal *prometheus.CounterVec
	TasksRunning   prometheus.Gauge
	TokensTotal    *prometheus.CounterVec
}

// NewMetrics создаёт и регистрирует метрики в reg.
// Если reg == nil, используется prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	f := promauto.With(reg)
	return &Metrics{
		TasksTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "careerflow_tasks_total",
			Help: "Finished pipeline tasks by role and status.",
		}, []string{"role", "status"}),
		TaskDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "careerflow_task_duration_seconds",
			Help:    "AI engine call duration per task.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 90},
		}, []string{"role"}),
		PipelinesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "careerflow_pipelines_total",
			Help: "Finished pipelines by status.",
		}, []string{"status"}),
		TasksRunning: f.NewGauge(prometheus.GaugeOpts{
			Name: "careerflow_tasks_running",
			Help: "Tasks currently executed by the AI engine.",
		}),
		TokensTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "careerflow_llm_tokens_total",
			Help: "Tokens consumed by the AI engine.",
		}, []string{"role", "kind"}),
	}
}

func (m *Metrics) TaskStarted(_ context.Context, _ domain.TaskEvent) {
	m.TasksRunning.Inc()
}

func (m *Metrics) TaskFinished(_ context.Context, ev domain.TaskEvent) {
	m.TasksRunning.Dec()

	role := ev.Task.Role.Key()
	m.TasksTotal.WithLabelValues(role, string(ev.Task.Status)).Inc()
	m.TaskDuration.WithLabelValues(role).Observe(ev.Task.Duration().Seconds())

	if out := ev.Task.Output; out != nil {
		m.TokensTotal.WithLabelValues(role, "prompt").Add(float64(out.Usage.PromptTokens))
		m.TokensTotal.WithLabelValues(role, "completion").Add(float64(out.Usage.CompletionTokens))
	}
}

func (m *Metrics) PipelineFinished(_ context.Context, ev domain.PipelineEvent) {
	status := "succeeded"
	if !ev.Succeeded() {
		status = "failed"
	}
	m.PipelinesTotal.WithLabelValues(status).Inc()
}
