package aiengine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/shaiso/Careerflow/internal/domain"
)

// AnthropicEngine — движок поверх Anthropic Messages API.
type AnthropicEngine struct {
	inner     anthropic.Client
	model     anthropic.Model
	maxTokens int64
	cfg       Config
}

// NewAnthropicEngine создаёт движок. Ключ API обязателен.
func NewAnthropicEngine(cfg Config) (*AnthropicEngine, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	cfg = cfg.withDefaults()

	model := cfg.Model
	if model == "" {
		model = DefaultAnthropicModel
	}

	inner := anthropic.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(cfg.Timeout),
	)

	return &AnthropicEngine{
		inner:     inner,
		model:     anthropic.Model(model),
		maxTokens: int64(cfg.MaxTokens),
		cfg:       cfg,
	}, nil
}

// Think выполняет один вызов Messages API.
func (e *AnthropicEngine) Think(ctx context.Context, req Request) (*domain.AgentOutput, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	resp, err := e.inner.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     e.model,
		MaxTokens: e.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: SystemPrompt(req.Role)},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userMessage(req))),
		},
	})
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return nil, &APIError{StatusCode: apiErr.StatusCode, Message: err.Error()}
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	content := strings.TrimSpace(text.String())
	if content == "" {
		return nil, ErrEmptyCompletion
	}

	return &domain.AgentOutput{
		Output: content,
		Model:  string(resp.Model),
		Usage: domain.Usage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
		},
	}, nil
}
