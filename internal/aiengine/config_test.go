package aiengine

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var llmEnvKeys = []string{
	"LLM_PROVIDER", "OPENAI_COMPAT_API_KEY", "LLM_API_KEY", "DEEPSEEK_API_KEY", "OPENAI_API_KEY",
	"OPENAI_COMPAT_BASE_URL", "LLM_BASE_URL", "DEEPSEEK_BASE_URL",
	"OPENAI_COMPAT_MODEL", "LLM_MODEL", "DEEPSEEK_MODEL",
	"ANTHROPIC_API_KEY", "ANTHROPIC_MODEL", "LLM_TIMEOUT_S",
}

func clearLLMEnv(t *testing.T) {
	t.Helper()
	for _, k := range llmEnvKeys {
		t.Setenv(k, "")
	}
}

func TestConfigFromEnv_Defaults(t *testing.T) {
	clearLLMEnv(t)

	cfg := ConfigFromEnv()
	assert.Equal(t, ProviderOpenAI, cfg.Provider)
	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, DefaultModel, cfg.Model)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Empty(t, cfg.APIKey)
	assert.Equal(t, "deepseek", cfg.Upstream())
	assert.False(t, cfg.Public().APIKeyConfigured)
}

func TestConfigFromEnv_Precedence(t *testing.T) {
	clearLLMEnv(t)
	t.Setenv("LLM_API_KEY", "second")
	t.Setenv("OPENAI_API_KEY", "fourth")
	t.Setenv("LLM_BASE_URL", "https://proxy.example.com/v1")
	t.Setenv("DEEPSEEK_MODEL", "deepseek-reasoner")
	t.Setenv("LLM_TIMEOUT_S", "15")

	cfg := ConfigFromEnv()
	assert.Equal(t, "second", cfg.APIKey)
	assert.Equal(t, "https://proxy.example.com/v1", cfg.BaseURL)
	assert.Equal(t, "deepseek-reasoner", cfg.Model)
	assert.Equal(t, 15*time.Second, cfg.Timeout)
	assert.Equal(t, "custom", cfg.Upstream())

	pub := cfg.Public()
	assert.True(t, pub.APIKeyConfigured)
	assert.Equal(t, "custom", pub.Upstream)
}

func TestConfigFromEnv_Anthropic(t *testing.T) {
	clearLLMEnv(t)
	t.Setenv("LLM_PROVIDER", "Anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")
	t.Setenv("LLM_TIMEOUT_S", "not-a-number")

	cfg := ConfigFromEnv()
	assert.Equal(t, ProviderAnthropic, cfg.Provider)
	assert.Equal(t, "sk-ant", cfg.APIKey)
	assert.Equal(t, DefaultAnthropicModel, cfg.Model)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, "anthropic", cfg.Upstream())
}

func TestLoadDotEnv(t *testing.T) {
	const key = "CAREERFLOW_DOTENV_PROBE"
	t.Setenv(key, "")
	os.Unsetenv(key)

	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte(key+"=from-dotenv\n"), 0o600))

	// Отсутствующий файл пропускается
	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env"), path))
	assert.Equal(t, "from-dotenv", os.Getenv(key))
}
