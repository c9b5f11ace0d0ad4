package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/adhocore/gronx"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// 生成モデルプロバイダー
const (
	ProviderGemini   = "gemini"
	ProviderOpenAI   = "openai"
	ProviderClaude   = "claude"
	ProviderDeepSeek = "deepseek"
	ProviderOllama   = "ollama"
)

// ConfigPathEnv は設定ファイルパスを指定する環境変数
const ConfigPathEnv = "TABITENKI_CONFIG"

// defaultModels はプロバイダーごとの既定モデル
var defaultModels = map[string]string{
	ProviderGemini:   "gemini-1.5-flash",
	ProviderOpenAI:   "gpt-4o-mini",
	ProviderClaude:   "claude-3-5-haiku-latest",
	ProviderDeepSeek: "deepseek-chat",
	ProviderOllama:   "llama3.1",
}

// Config はアプリケーション全体の設定
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Weather WeatherConfig `yaml:"weather"`
	LLM     LLMConfig     `yaml:"llm"`
	Session SessionConfig `yaml:"session"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// ServerConfig はサーバー設定
type ServerConfig struct {
	Host              string `yaml:"host" env:"TABITENKI_HOST"`
	Port              int    `yaml:"port" env:"PORT"`
	BasePath          string `yaml:"base_path" env:"TABITENKI_BASE_PATH"`
	StaticDir         string `yaml:"static_dir" env:"TABITENKI_STATIC_DIR"`
	SerializeSessions bool   `yaml:"serialize_sessions" env:"TABITENKI_SERIALIZE_SESSIONS"`
}

// WeatherConfig はOpenWeather設定
type WeatherConfig struct {
	APIKey            string        `yaml:"api_key" env:"OPENWEATHER_API_KEY"` // 環境変数から読み込み推奨
	BaseURL           string        `yaml:"base_url" env:"OPENWEATHER_BASE_URL"`
	CurrentTimeout    time.Duration `yaml:"current_timeout"`
	ForecastTimeout   time.Duration `yaml:"forecast_timeout"`
	RequestsPerMinute int           `yaml:"requests_per_minute"`
}

// LLMConfig は生成モデル設定
type LLMConfig struct {
	Provider string `yaml:"provider" env:"TABITENKI_LLM_PROVIDER"`
	Model    string `yaml:"model" env:"GEMINI_MODEL"`
	// UtilityModel は翻訳・地名抽出用のモデル
	UtilityModel string `yaml:"utility_model" env:"TABITENKI_LLM_UTILITY_MODEL"`

	Gemini   GeminiConfig   `yaml:"gemini"`
	OpenAI   OpenAIConfig   `yaml:"openai"`
	Claude   ClaudeConfig   `yaml:"claude"`
	DeepSeek DeepSeekConfig `yaml:"deepseek"`
	Ollama   OllamaConfig   `yaml:"ollama"`
}

// GeminiConfig はGemini API設定
type GeminiConfig struct {
	APIKey string `yaml:"api_key" env:"GEMINI_API_KEY"` // 環境変数から読み込み推奨
}

// OpenAIConfig はOpenAI API設定
type OpenAIConfig struct {
	APIKey string `yaml:"api_key" env:"OPENAI_API_KEY"` // 環境変数から読み込み推奨
}

// ClaudeConfig はClaude API設定
type ClaudeConfig struct {
	APIKey string `yaml:"api_key" env:"ANTHROPIC_API_KEY"` // 環境変数から読み込み推奨
}

// DeepSeekConfig はDeepSeek API設定
type DeepSeekConfig struct {
	APIKey string `yaml:"api_key" env:"DEEPSEEK_API_KEY"` // 環境変数から読み込み推奨
}

// OllamaConfig はOllama設定
type OllamaConfig struct {
	BaseURL string `yaml:"base_url" env:"OLLAMA_BASE_URL"`
}

// SessionConfig はセッション設定
type SessionConfig struct {
	DefaultCity   string        `yaml:"default_city" env:"TABITENKI_DEFAULT_CITY"`
	WeatherTTL    time.Duration `yaml:"weather_ttl"`
	MaxAge        time.Duration `yaml:"max_age"`
	SweepSchedule string        `yaml:"sweep_schedule"`
}

// MetricsConfig はメトリクス設定
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// TracingConfig はトレーシング設定
type TracingConfig struct {
	Exporter    string `yaml:"exporter" env:"OTEL_TRACES_EXPORTER"`
	Endpoint    string `yaml:"endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName string `yaml:"service_name" env:"OTEL_SERVICE_NAME"`
}

// PathFromEnv は環境変数の設定ファイルパスを返す
func PathFromEnv() string {
	return os.Getenv(ConfigPathEnv)
}

// LoadConfig は設定ファイルを読み込む
// path が空、またはファイルが存在しない場合は既定値と環境変数のみで構成する
func LoadConfig(path string) (*Config, error) {
	// bool の既定値はパース前に設定
	cfg := Config{
		Server:  ServerConfig{SerializeSessions: true},
		Metrics: MetricsConfig{Enabled: true},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config YAML: %w", err)
			}
		}
	}

	// デフォルト値設定
	cfg.setDefaults()

	// 環境変数で上書き
	if err := cfg.loadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	// バリデーション
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults はデフォルト値を設定
func (c *Config) setDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 5000
	}
	if c.Server.BasePath == "" {
		c.Server.BasePath = "/api"
	}

	if c.Weather.BaseURL == "" {
		c.Weather.BaseURL = "https://api.openweathermap.org/data/2.5"
	}
	if c.Weather.CurrentTimeout == 0 {
		c.Weather.CurrentTimeout = 5 * time.Second
	}
	if c.Weather.ForecastTimeout == 0 {
		c.Weather.ForecastTimeout = 10 * time.Second
	}
	if c.Weather.RequestsPerMinute == 0 {
		c.Weather.RequestsPerMinute = 60
	}

	if c.LLM.Provider == "" {
		c.LLM.Provider = ProviderGemini
	}

	if c.Session.DefaultCity == "" {
		c.Session.DefaultCity = "Tokyo"
	}
	if c.Session.WeatherTTL == 0 {
		c.Session.WeatherTTL = 15 * time.Minute
	}
	if c.Session.MaxAge == 0 {
		c.Session.MaxAge = 24 * time.Hour
	}
	if c.Session.SweepSchedule == "" {
		c.Session.SweepSchedule = "@hourly"
	}

	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}

	if c.Tracing.Exporter == "" {
		c.Tracing.Exporter = "none"
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = "tabitenki"
	}
}

// loadFromEnv は環境変数から設定を読み込み
// その後、環境変数で確定したプロバイダーに合わせてモデルの既定値を補う
func (c *Config) loadFromEnv() error {
	// 未設定の環境変数はファイルの値を維持する
	if err := env.Parse(c); err != nil {
		return err
	}

	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	if c.LLM.Model == "" {
		c.LLM.Model = defaultModels[c.LLM.Provider]
	}
	if c.LLM.UtilityModel == "" {
		if c.LLM.Provider == ProviderGemini {
			c.LLM.UtilityModel = "gemini-2.0-flash"
		} else {
			c.LLM.UtilityModel = c.LLM.Model
		}
	}
	return nil
}

// Validate は設定の妥当性を検証
func (c *Config) Validate() error {
	// サーバー設定検証
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if !strings.HasPrefix(c.Server.BasePath, "/") {
		return fmt.Errorf("server base_path must start with '/': %q", c.Server.BasePath)
	}

	// 天気設定検証
	if c.Weather.APIKey == "" {
		return fmt.Errorf("weather api_key is required (OPENWEATHER_API_KEY)")
	}
	if c.Weather.RequestsPerMinute < 1 {
		return fmt.Errorf("weather requests_per_minute must be positive: %d", c.Weather.RequestsPerMinute)
	}

	// 生成モデル設定検証
	if err := c.validateLLM(); err != nil {
		return err
	}

	// セッション設定検証
	if c.Session.WeatherTTL < 0 || c.Session.MaxAge < 0 {
		return fmt.Errorf("session durations must not be negative")
	}
	if !gronx.New().IsValid(c.Session.SweepSchedule) {
		return fmt.Errorf("invalid session sweep_schedule: %q", c.Session.SweepSchedule)
	}

	switch c.Tracing.Exporter {
	case "none", "stdout", "otlp":
	default:
		return fmt.Errorf("unknown tracing exporter: %q", c.Tracing.Exporter)
	}

	return nil
}

func (c *Config) validateLLM() error {
	var missing string
	switch c.LLM.Provider {
	case ProviderGemini:
		if c.LLM.Gemini.APIKey == "" {
			missing = "GEMINI_API_KEY"
		}
	case ProviderOpenAI:
		if c.LLM.OpenAI.APIKey == "" {
			missing = "OPENAI_API_KEY"
		}
	case ProviderClaude:
		if c.LLM.Claude.APIKey == "" {
			missing = "ANTHROPIC_API_KEY"
		}
	case ProviderDeepSeek:
		if c.LLM.DeepSeek.APIKey == "" {
			missing = "DEEPSEEK_API_KEY"
		}
	case ProviderOllama:
		if c.LLM.Ollama.BaseURL == "" {
			return fmt.Errorf("llm ollama base_url is required (OLLAMA_BASE_URL)")
		}
	default:
		return fmt.Errorf("unknown llm provider: %q", c.LLM.Provider)
	}

	if missing != "" {
		return fmt.Errorf("llm %s api_key is required (%s)", c.LLM.Provider, missing)
	}
	return nil
}

// Addr はリッスンアドレスを返す
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// CredentialStatus は資格情報の設定有無を返す（値は含まない）
func (c *Config) CredentialStatus() map[string]bool {
	return map[string]bool{
		"OpenWeather": c.Weather.APIKey != "",
		"Gemini":      c.LLM.Gemini.APIKey != "",
		"OpenAI":      c.LLM.OpenAI.APIKey != "",
		"Claude":      c.LLM.Claude.APIKey != "",
		"DeepSeek":    c.LLM.DeepSeek.APIKey != "",
	}
}
