package aiengine

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Провайдеры LLM.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Значения по умолчанию.
const (
	DefaultBaseURL        = "https://api.deepseek.com"
	DefaultModel          = "deepseek-chat"
	DefaultAnthropicModel = "claude-sonnet-4-5"
	DefaultTimeout        = 90 * time.Second
	DefaultMaxTokens      = 1200
	DefaultTemperature    = 0.7
)

// Config — конфигурация AI-движка.
type Config struct {
	Provider    string        // openai (default) или anthropic
	APIKey      string        // ключ API
	BaseURL     string        // базовый URL OpenAI-совместимого API
	Model       string        // модель
	Timeout     time.Duration // таймаут одного вызова (default: 90s)
	MaxTokens   int           // лимит токенов ответа (default: 1200)
	Temperature float64       // температура (default: 0.7)
}

// PublicConfig — конфигурация без секретов (для вывода пользователю).
type PublicConfig struct {
	Provider         string `json:"provider"`
	Upstream         string `json:"upstream"`
	BaseURL          string `json:"base_url"`
	Model            string `json:"model"`
	APIKeyConfigured bool   `json:"api_key_configured"`
}

// LoadDotEnv загружает переменные окружения из .env файлов.
// Без аргументов пробует ./.env; отсутствующий файл не считается ошибкой.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// ConfigFromEnv читает конфигурацию из переменных окружения.
//
// Ключ: OPENAI_COMPAT_API_KEY, LLM_API_KEY, DEEPSEEK_API_KEY, OPENAI_API_KEY
// (первый непустой). Для anthropic — ANTHROPIC_API_KEY.
// URL: OPENAI_COMPAT_BASE_URL, LLM_BASE_URL, DEEPSEEK_BASE_URL.
// Модель: OPENAI_COMPAT_MODEL, LLM_MODEL, DEEPSEEK_MODEL (для anthropic — ANTHROPIC_MODEL).
// Таймаут: LLM_TIMEOUT_S (секунды).
func ConfigFromEnv() Config {
	cfg := Config{
		Provider:    strings.ToLower(firstNonEmpty("LLM_PROVIDER")),
		Timeout:     DefaultTimeout,
		MaxTokens:   DefaultMaxTokens,
		Temperature: DefaultTemperature,
	}
	if cfg.Provider == "" {
		cfg.Provider = ProviderOpenAI
	}

	if cfg.Provider == ProviderAnthropic {
		cfg.APIKey = firstNonEmpty("ANTHROPIC_API_KEY")
		cfg.Model = firstNonEmpty("ANTHROPIC_MODEL")
		if cfg.Model == "" {
			cfg.Model = DefaultAnthropicModel
		}
	} else {
		cfg.APIKey = firstNonEmpty("OPENAI_COMPAT_API_KEY", "LLM_API_KEY", "DEEPSEEK_API_KEY", "OPENAI_API_KEY")
		cfg.BaseURL = firstNonEmpty("OPENAI_COMPAT_BASE_URL", "LLM_BASE_URL", "DEEPSEEK_BASE_URL")
		if cfg.BaseURL == "" {
			cfg.BaseURL = DefaultBaseURL
		}
		cfg.Model = firstNonEmpty("OPENAI_COMPAT_MODEL", "LLM_MODEL", "DEEPSEEK_MODEL")
		if cfg.Model == "" {
			cfg.Model = DefaultModel
		}
	}

	if v := firstNonEmpty("LLM_TIMEOUT_S"); v != "" {
		if sec, err := strconv.Atoi(v); err == nil && sec > 0 {
			cfg.Timeout = time.Duration(sec) * time.Second
		}
	}

	return cfg
}

// Upstream определяет upstream по базовому URL (для логов и диагностики).
func (c Config) Upstream() string {
	if c.Provider == ProviderAnthropic {
		return "anthropic"
	}
	u := strings.ToLower(c.BaseURL)
	switch {
	case strings.Contains(u, "deepseek.com"):
		return "deepseek"
	case strings.Contains(u, "api.openai.com"):
		return "openai"
	default:
		return "custom"
	}
}

// Public возвращает конфигурацию без ключа API.
func (c Config) Public() PublicConfig {
	return PublicConfig{
		Provider:         c.Provider,
		Upstream:         c.Upstream(),
		BaseURL:          c.BaseURL,
		Model:            c.Model,
		APIKeyConfigured: c.APIKey != "",
	}
}

// withDefaults подставляет значения по умолчанию в нулевые поля.
func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.Temperature == 0 {
		c.Temperature = DefaultTemperature
	}
	return c
}

func firstNonEmpty(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}
