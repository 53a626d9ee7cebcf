package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
)

// Provider selects the response generator backend.
type Provider string

const (
	ProviderNone      Provider = ""
	ProviderArk       Provider = "ark"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGemini    Provider = "gemini"
)

// StorageDriver selects the session/message repository.
type StorageDriver string

const (
	StorageMemory StorageDriver = "memory"
	StorageSQLite StorageDriver = "sqlite"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Storage   StorageConfig
	Generator GeneratorConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	return LoadWith(env.Options{})
}

// LoadWith parses configuration with custom env options (tests inject Environment here).
func LoadWith(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	addr, err := normalizeAddr(cfg.Server.Port)
	if err != nil {
		return nil, err
	}
	cfg.Server.Addr = addr

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case StorageMemory, StorageSQLite:
	default:
		return fmt.Errorf("invalid STORAGE_DRIVER %q", c.Storage.Driver)
	}

	switch c.Generator.Provider {
	case ProviderNone, ProviderArk, ProviderOpenAI, ProviderAnthropic, ProviderGemini:
	default:
		return fmt.Errorf("invalid GENERATOR_PROVIDER %q", c.Generator.Provider)
	}

	if c.Generator.Timeout <= 0 {
		return fmt.Errorf("GENERATOR_TIMEOUT must be positive, got %s", c.Generator.Timeout)
	}
	if c.Generator.HistoryLimit < 0 {
		return fmt.Errorf("HISTORY_LIMIT must not be negative, got %d", c.Generator.HistoryLimit)
	}
	return nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Port               string   `env:"PORT" envDefault:"8080"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	Addr               string
}

// normalizeAddr 解析服务器监听地址。
func normalizeAddr(port string) (string, error) {
	port = strings.TrimSpace(port)
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return port, nil
	}

	if strings.Contains(port, " ") {
		return "", fmt.Errorf("invalid PORT value: %q", port)
	}

	return ":" + port, nil
}

// LogConfig 描述日志配置。
type LogConfig struct {
	Level       string `env:"LOG_LEVEL" envDefault:"info"`
	Development bool   `env:"LOG_DEVELOPMENT" envDefault:"false"`
}

// StorageConfig 描述会话存储配置。
type StorageConfig struct {
	Driver             StorageDriver `env:"STORAGE_DRIVER" envDefault:"memory"`
	SQLitePath         string        `env:"SQLITE_PATH" envDefault:"data/salon.db"`
	PersonaCatalogPath string        `env:"PERSONA_CATALOG_PATH"`
}

// GeneratorConfig 描述大模型相关配置。
type GeneratorConfig struct {
	Provider     Provider      `env:"GENERATOR_PROVIDER"`
	Timeout      time.Duration `env:"GENERATOR_TIMEOUT" envDefault:"30s"`
	HistoryLimit int           `env:"HISTORY_LIMIT" envDefault:"20"`

	Ark       ArkConfig
	OpenAI    OpenAIConfig
	Anthropic AnthropicConfig
	Gemini    GeminiConfig
}

// ArkConfig 描述火山方舟模型配置。Zero Temperature/TopP/MaxTokens leave the provider default.
type ArkConfig struct {
	APIKey      string  `env:"ARK_API_KEY"`
	AccessKey   string  `env:"ARK_ACCESS_KEY"`
	SecretKey   string  `env:"ARK_SECRET_KEY"`
	Model       string  `env:"ARK_MODEL"`
	BaseURL     string  `env:"ARK_BASE_URL" envDefault:"https://ark.cn-beijing.volces.com/api/v3"`
	Region      string  `env:"ARK_REGION" envDefault:"cn-beijing"`
	Temperature float32 `env:"ARK_TEMPERATURE"`
	TopP        float32 `env:"ARK_TOP_P"`
	MaxTokens   int     `env:"ARK_MAX_TOKENS"`
}

// Enabled 表示是否提供了必需的密钥。
func (c ArkConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// OpenAIConfig targets any OpenAI-compatible chat completions endpoint.
type OpenAIConfig struct {
	APIKey  string `env:"OPENAI_API_KEY"`
	BaseURL string `env:"OPENAI_BASE_URL"`
	Model   string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
}

// Enabled reports whether an API key is configured.
func (c OpenAIConfig) Enabled() bool {
	return c.APIKey != ""
}

// AnthropicConfig configures the Anthropic Messages API client.
type AnthropicConfig struct {
	APIKey    string `env:"ANTHROPIC_API_KEY"`
	BaseURL   string `env:"ANTHROPIC_BASE_URL"`
	Model     string `env:"ANTHROPIC_MODEL" envDefault:"claude-3-7-sonnet-latest"`
	MaxTokens int64  `env:"ANTHROPIC_MAX_TOKENS" envDefault:"1024"`
}

// Enabled reports whether an API key is configured.
func (c AnthropicConfig) Enabled() bool {
	return c.APIKey != ""
}

// GeminiConfig configures the Google Gen AI (Gemini API) client.
type GeminiConfig struct {
	APIKey  string `env:"GEMINI_API_KEY"`
	BaseURL string `env:"GEMINI_BASE_URL"`
	Model   string `env:"GEMINI_MODEL" envDefault:"gemini-2.0-flash"`
}

// Enabled reports whether an API key is configured.
func (c GeminiConfig) Enabled() bool {
	return c.APIKey != ""
}
