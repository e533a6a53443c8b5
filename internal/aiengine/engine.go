package aiengine

import (
	"context"
	"fmt"
	"strings"

	"github.com/shaiso/Careerflow/internal/domain"
)

// Request — один вызов "think".
type Request struct {
	// Role — роль агента.
	Role domain.Role

	// Context — сериализованный контекст задачи (входные данные + результаты зависимостей).
	Context string

	// PreviousOutput — результат последней зависимости, пустой для корневых задач.
	PreviousOutput string
}

// Engine — интерфейс AI-движка.
//
// Think возвращает результат с непустым Output или ошибку.
// ctx может содержать таймаут вызывающей стороны.
type Engine interface {
	Think(ctx context.Context, req Request) (*domain.AgentOutput, error)
}

// EngineFunc — адаптер функции к Engine.
type EngineFunc func(ctx context.Context, req Request) (*domain.AgentOutput, error)

// Think реализует Engine.
func (f EngineFunc) Think(ctx context.Context, req Request) (*domain.AgentOutput, error) {
	return f(ctx, req)
}

// New создаёт движок по конфигурации.
func New(cfg Config) (Engine, error) {
	switch cfg.Provider {
	case "", ProviderOpenAI:
		return NewOpenAIEngine(cfg)
	case ProviderAnthropic:
		return NewAnthropicEngine(cfg)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Provider)
	}
}

// userMessage собирает пользовательское сообщение из контекста и previous output.
func userMessage(req Request) string {
	var b strings.Builder
	b.WriteString(req.Context)
	if req.PreviousOutput != "" {
		b.WriteString("\n\nPrevious step output:\n")
		b.WriteString(req.PreviousOutput)
	}
	return b.String()
}
