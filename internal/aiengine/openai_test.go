package aiengine

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/Careerflow/internal/domain"
)

func newTestEngine(t *testing.T, url string) *OpenAIEngine {
	t.Helper()
	e, err := NewOpenAIEngine(Config{APIKey: "test-key", BaseURL: url, Model: "test-model"})
	require.NoError(t, err)
	return e
}

func TestOpenAIEngine_Think_Success(t *testing.T) {
	var received chatRequest
	var auth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		auth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"model": "test-model",
			"choices": [{"message": {"role": "assistant", "content": "  career analysis  "}}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 34}
		}`))
	}))
	defer server.Close()

	e := newTestEngine(t, server.URL+"/")
	out, err := e.Think(context.Background(), Request{
		Role:           domain.RolePlanner,
		Context:        `{"resume":"text"}`,
		PreviousOutput: "prev",
	})
	require.NoError(t, err)

	assert.Equal(t, "career analysis", out.Output)
	assert.Equal(t, "test-model", out.Model)
	assert.Equal(t, int64(12), out.Usage.PromptTokens)
	assert.Equal(t, int64(34), out.Usage.CompletionTokens)

	assert.Equal(t, "Bearer test-key", auth)
	assert.Equal(t, "test-model", received.Model)
	assert.Equal(t, DefaultMaxTokens, received.MaxTokens)
	assert.InDelta(t, DefaultTemperature, received.Temperature, 1e-9)
	require.Len(t, received.Messages, 2)
	assert.Equal(t, "system", received.Messages[0].Role)
	assert.Equal(t, SystemPrompt(domain.RolePlanner), received.Messages[0].Content)
	assert.Equal(t, "user", received.Messages[1].Role)
	assert.True(t, strings.HasPrefix(received.Messages[1].Content, `{"resume":"text"}`))
	assert.Contains(t, received.Messages[1].Content, "Previous step output:\nprev")
}

func TestOpenAIEngine_Think_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"message": "rate limited"}}`))
	}))
	defer server.Close()

	_, err := newTestEngine(t, server.URL).Think(context.Background(), Request{Role: domain.RoleCoach})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Equal(t, "rate limited", apiErr.Message)
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestOpenAIEngine_Think_APIErrorMultibyteBody(t *testing.T) {
	body := strings.Repeat("服务器繁忙", 100)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(body))
	}))
	defer server.Close()

	_, err := newTestEngine(t, server.URL).Think(context.Background(), Request{Role: domain.RoleCoach})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, utf8.ValidString(apiErr.Message), "message must stay valid UTF-8")
	assert.Equal(t, 200, utf8.RuneCountInString(strings.TrimSuffix(apiErr.Message, "...")))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab...", truncate("abcdef", 2))
	assert.Equal(t, "简历...", truncate("简历优化", 2))
}

func TestOpenAIEngine_Think_EmptyCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"choices": [{"message": {"content": "   "}}]}`))
	}))
	defer server.Close()

	_, err := newTestEngine(t, server.URL).Think(context.Background(), Request{Role: domain.RoleCoach})
	assert.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestOpenAIEngine_Think_Malformed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`<html>gateway</html>`))
	}))
	defer server.Close()

	_, err := newTestEngine(t, server.URL).Think(context.Background(), Request{Role: domain.RoleCoach})
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestOpenAIEngine_Think_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	e, err := NewOpenAIEngine(Config{APIKey: "k", BaseURL: server.URL, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	_, err = e.Think(context.Background(), Request{Role: domain.RoleCoach})
	assert.True(t, errors.Is(err, ErrTimeout), "expected ErrTimeout, got %v", err)
}

func TestNewOpenAIEngine_MissingKey(t *testing.T) {
	_, err := NewOpenAIEngine(Config{})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestNew_Provider(t *testing.T) {
	e, err := New(Config{APIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIEngine{}, e)

	e, err = New(Config{Provider: ProviderAnthropic, APIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &AnthropicEngine{}, e)

	_, err = New(Config{Provider: "llama", APIKey: "k"})
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestEngineFunc(t *testing.T) {
	var e Engine = EngineFunc(func(_ context.Context, req Request) (*domain.AgentOutput, error) {
		return &domain.AgentOutput{Output: req.Role.Key()}, nil
	})

	out, err := e.Think(context.Background(), Request{Role: domain.RoleReviewer})
	require.NoError(t, err)
	assert.Equal(t, "reviewer", out.Output)
}
