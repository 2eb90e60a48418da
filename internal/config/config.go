package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/persona-chat/backend/internal/service/backend"
)

// Backend providers selectable with CHAT_BACKEND.
const (
	ProviderGemini = backend.ProviderGemini
	ProviderArk    = "ark"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server  ServerConfig
	Log     LogConfig
	Backend BackendConfig
	// PersonaFile optionally replaces the built-in personas.
	PersonaFile string
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	logCfg, err := loadLogConfig()
	if err != nil {
		return nil, err
	}

	be, err := loadBackendConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:      server,
		Log:         logCfg,
		Backend:     be,
		PersonaFile: strings.TrimSpace(os.Getenv("PERSONA_FILE")),
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// LogConfig 描述日志输出。
type LogConfig struct {
	Level  zerolog.Level
	Format string
}

func loadLogConfig() (LogConfig, error) {
	level := zerolog.InfoLevel
	if raw := strings.TrimSpace(os.Getenv("LOG_LEVEL")); raw != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(raw))
		if err != nil {
			return LogConfig{}, fmt.Errorf("invalid LOG_LEVEL value %q: %w", raw, err)
		}
		level = parsed
	}

	format := strings.ToLower(getEnvOrDefault("LOG_FORMAT", "console"))
	if format != "console" && format != "json" {
		return LogConfig{}, fmt.Errorf("invalid LOG_FORMAT value %q", format)
	}

	return LogConfig{Level: level, Format: format}, nil
}

// BackendConfig selects and configures the generative-text backend.
type BackendConfig struct {
	Provider string
	Gemini   backend.GeminiConfig
	Ark      ArkConfig
}

// ArkConfig 描述 Ark 大模型相关配置。
type ArkConfig struct {
	APIKey    string
	AccessKey string
	SecretKey string
	Model     string
	BaseURL   string
	Region    string
	TopP      *float64
}

// Enabled 表示是否提供了必需的密钥。
func (c ArkConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel 使用配置创建一个模型实例。Temperature and max tokens are
// supplied per persona at call time.
func (c ArkConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("Ark 凭证或模型配置缺失，至少提供 ARK_API_KEY + ARK_MODEL 或 AK/SK 组合")
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	return ark.NewChatModel(ctx, &ark.ChatModelConfig{
		BaseURL:   c.BaseURL,
		Region:    c.Region,
		APIKey:    c.APIKey,
		AccessKey: c.AccessKey,
		SecretKey: c.SecretKey,
		Model:     c.Model,
		TopP:      topP,
	})
}

// NewBackend builds the configured backend. Failures are fatal for the
// process and surface as backend unavailability.
func (c BackendConfig) NewBackend(ctx context.Context) (backend.Backend, error) {
	switch c.Provider {
	case ProviderGemini:
		return backend.NewGemini(ctx, c.Gemini)
	case ProviderArk:
		chatModel, err := c.Ark.NewChatModel(ctx)
		if err != nil {
			return nil, backend.Unavailable(ProviderArk, err)
		}
		return backend.NewEino(ctx, ProviderArk, chatModel)
	default:
		return nil, fmt.Errorf("unknown CHAT_BACKEND %q", c.Provider)
	}
}

func loadBackendConfig() (BackendConfig, error) {
	provider := strings.ToLower(getEnvOrDefault("CHAT_BACKEND", ProviderGemini))
	if provider != ProviderGemini && provider != ProviderArk {
		return BackendConfig{}, fmt.Errorf("invalid CHAT_BACKEND value %q", provider)
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return BackendConfig{}, err
	}
	if topP != nil && (*topP < 0 || *topP > 1) {
		return BackendConfig{}, fmt.Errorf("invalid ARK_TOP_P value %v: outside [0,1]", *topP)
	}

	arkModel := strings.TrimSpace(os.Getenv("ARK_MODEL"))
	if arkModel == "" {
		arkModel = strings.TrimSpace(os.Getenv("Model"))
	}

	return BackendConfig{
		Provider: provider,
		Gemini: backend.GeminiConfig{
			APIKey:  firstEnv("GEMINI_API_KEY", "gemini_class"),
			Model:   getEnvOrDefault("GEMINI_MODEL", backend.DefaultGeminiModel),
			BaseURL: strings.TrimSpace(os.Getenv("GEMINI_BASE_URL")),
		},
		Ark: ArkConfig{
			APIKey:    strings.TrimSpace(os.Getenv("ARK_API_KEY")),
			AccessKey: strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
			SecretKey: strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
			Model:     arkModel,
			BaseURL:   getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
			Region:    getEnvOrDefault("ARK_REGION", "cn-beijing"),
			TopP:      topP,
		},
	}, nil
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			return value
		}
	}
	return ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
