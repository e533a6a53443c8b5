package aiengine

import (
	"errors"
	"fmt"
)

// Ошибки AI-движка.
var (
	// ErrMissingAPIKey — ключ API не задан в окружении.
	ErrMissingAPIKey = errors.New("llm api key not configured")

	// ErrUnknownProvider — LLM_PROVIDER содержит неизвестное значение.
	ErrUnknownProvider = errors.New("unknown llm provider")

	// ErrUpstream — upstream API вернул ошибку.
	ErrUpstream = errors.New("llm upstream error")

	// ErrTimeout — вызов превысил таймаут.
	ErrTimeout = errors.New("llm call timeout")

	// ErrEmptyCompletion — ответ не содержит текста.
	ErrEmptyCompletion = errors.New("llm returned empty completion")

	// ErrMalformedResponse — ответ не разбирается.
	ErrMalformedResponse = errors.New("malformed llm response")
)

// APIError — HTTP-ошибка upstream API.
type APIError struct {
	StatusCode int
	Message    string
}

// Error реализует интерфейс error.
func (e *APIError) Error() string {
	return fmt.Sprintf("llm api HTTP %d: %s", e.StatusCode, e.Message)
}

// Unwrap возвращает ErrUpstream.
func (e *APIError) Unwrap() error {
	return ErrUpstream
}
