package domain

import "time"

// Task — одна единица работы pipeline.
//
// Task существует только внутри Pipeline и создаётся при его построении.
// Input задаётся при создании и дальше только читается.
// Output записывается один раз — при успешном завершении.
type Task struct {
	// Index — позиция задачи в pipeline (0-based).
	Index int `json:"index"`

	// Role — агент, выполняющий задачу.
	Role Role `json:"role"`

	// Input — именованные входные данные (например, текст резюме).
	Input map[string]any `json:"input,omitempty"`

	// DependsOn — индексы задач, которые должны завершиться до запуска этой.
	// Порядок значим: последняя зависимость даёт "previous output" для движка.
	DependsOn []int `json:"depends_on,omitempty"`

	// Priority — подсказка для упорядочивания, не влияет на готовность.
	Priority int `json:"priority"`

	// Status — текущий статус.
	Status TaskStatus `json:"status"`

	// Output — результат AI-движка, nil до успешного завершения.
	Output *AgentOutput `json:"output,omitempty"`

	// Error — текст ошибки при неудаче.
	Error string `json:"error,omitempty"`

	// StartedAt — время перехода в running.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// FinishedAt — время перехода в финальный статус.
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Duration возвращает продолжительность выполнения.
func (t *Task) Duration() time.Duration {
	if t.StartedAt == nil || t.FinishedAt == nil {
		return 0
	}
	return t.FinishedAt.Sub(*t.StartedAt)
}

// IsFinished возвращает true, если задача в финальном статусе.
func (t *Task) IsFinished() bool {
	return t.Status.IsTerminal()
}

// MarkRunning переводит задачу в running.
func (t *Task) MarkRunning() {
	now := time.Now()
	t.Status = TaskStatusRunning
	t.StartedAt = &now
}

// MarkCompleted переводит задачу в completed с результатом.
func (t *Task) MarkCompleted(out *AgentOutput) {
	now := time.Now()
	t.Status = TaskStatusCompleted
	t.FinishedAt = &now
	t.Output = out
}

// MarkFailed переводит задачу в failed с ошибкой.
func (t *Task) MarkFailed(err string) {
	now := time.Now()
	t.Status = TaskStatusFailed
	t.FinishedAt = &now
	t.Error = err
}

// OutputText возвращает текст результата или пустую строку.
func (t *Task) OutputText() string {
	if t.Output == nil {
		return ""
	}
	return t.Output.Output
}

// AgentOutput — структурированный ответ AI-движка.
type AgentOutput struct {
	// Output — сгенерированный текст (обязательное поле).
	Output string `json:"output"`

	// Model — модель, которая сгенерировала ответ.
	Model string `json:"model,omitempty"`

	// Usage — расход токенов.
	Usage Usage `json:"usage,omitempty"`
}

// Usage — статистика токенов одного вызова.
type Usage struct {
	PromptTokens     int64 `json:"prompt_tokens,omitempty"`
	CompletionTokens int64 `json:"completion_tokens,omitempty"`
}
