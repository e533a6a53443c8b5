package aiengine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/shaiso/Careerflow/internal/domain"
)

// OpenAIEngine — движок поверх OpenAI-совместимого /chat/completions.
//
// Работает с DeepSeek, OpenAI и любым совместимым прокси.
// Ответ разбирается через gjson:
//   - choices.0.message.content — текст
//   - model, usage.prompt_tokens, usage.completion_tokens
type OpenAIEngine struct {
	cfg    Config
	client *http.Client
}

// NewOpenAIEngine создаёт движок. Ключ API обязателен.
func NewOpenAIEngine(cfg Config) (*OpenAIEngine, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	return &OpenAIEngine{
		cfg:    cfg.withDefaults(),
		client: &http.Client{},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Stream      bool          `json:"stream"`
}

// Think выполняет один вызов chat completion.
func (e *OpenAIEngine) Think(ctx context.Context, req Request) (*domain.AgentOutput, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	body, err := json.Marshal(chatRequest{
		Model: e.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: SystemPrompt(req.Role)},
			{Role: "user", Content: userMessage(req)},
		},
		Temperature: e.cfg.Temperature,
		MaxTokens:   e.cfg.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := strings.TrimRight(e.cfg.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+e.cfg.APIKey)

	start := time.Now()
	resp, err := e.client.Do(httpReq)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s: %v", ErrTimeout, time.Since(start).Round(time.Millisecond), err)
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrUpstream, err)
	}

	if resp.StatusCode >= 400 {
		msg := gjson.GetBytes(respBody, "error.message").String()
		if msg == "" {
			msg = truncate(string(respBody), 200)
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	return parseChatCompletion(respBody)
}

// parseChatCompletion извлекает результат из тела ответа.
func parseChatCompletion(body []byte) (*domain.AgentOutput, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: %s", ErrMalformedResponse, truncate(string(body), 200))
	}

	parsed := gjson.ParseBytes(body)
	content := strings.TrimSpace(parsed.Get("choices.0.message.content").String())
	if content == "" {
		return nil, ErrEmptyCompletion
	}

	return &domain.AgentOutput{
		Output: content,
		Model:  parsed.Get("model").String(),
		Usage: domain.Usage{
			PromptTokens:     parsed.Get("usage.prompt_tokens").Int(),
			CompletionTokens: parsed.Get("usage.completion_tokens").Int(),
		},
	}, nil
}

// truncate обрезает строку до maxLen символов.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
