package domain

import "time"

// Статусы записей журнала выполнения.
const (
	LogStatusSuccess = "success"
	LogStatusFailed  = "failed"
)

// PreviewLength — максимальная длина превью результата в журнале (в символах).
const PreviewLength = 100

// LogEntry — запись журнала выполнения pipeline.
type LogEntry struct {
	Role          string        `json:"role"`
	Status        string        `json:"status"`
	Duration      time.Duration `json:"duration,omitempty"`
	OutputPreview string        `json:"output_preview,omitempty"`
	Error         string        `json:"error,omitempty"`
}

// Result — агрегированный результат pipeline фиксированной формы.
//
// Все пять полей результата присутствуют всегда: роль без завершённой
// задачи даёт пустую строку.
type Result struct {
	CareerAnalysis     string     `json:"career_analysis"`
	JobRecommendations string     `json:"job_recommendations"`
	OptimizedResume    string     `json:"optimized_resume"`
	InterviewPrep      string     `json:"interview_prep"`
	MockInterview      string     `json:"mock_interview"`
	ExecutionLog       []LogEntry `json:"execution_log"`

	// ByRole — все результаты по ключу роли в порядке поступления.
	ByRole map[string][]string `json:"by_role,omitempty"`
}

// Progress — снимок прогресса pipeline.
type Progress struct {
	Total       int     `json:"total"`
	Completed   int     `json:"completed"`
	Running     int     `json:"running"`
	Failed      int     `json:"failed"`
	Percent     float64 `json:"progress"`
	CurrentTask string  `json:"current_task,omitempty"`
}

// Preview обрезает текст до PreviewLength символов.
func Preview(s string) string {
	r := []rune(s)
	if len(r) <= PreviewLength {
		return s
	}
	return string(r[:PreviewLength])
}
