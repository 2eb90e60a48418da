package config

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/persona-chat/backend/internal/service/backend"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "LOG_LEVEL", "LOG_FORMAT", "CHAT_BACKEND", "PERSONA_FILE",
		"GEMINI_API_KEY", "gemini_class", "GEMINI_MODEL", "GEMINI_BASE_URL",
		"ARK_API_KEY", "ARK_ACCESS_KEY", "ARK_SECRET_KEY", "ARK_MODEL", "Model",
		"ARK_BASE_URL", "ARK_REGION", "ARK_TOP_P",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, zerolog.InfoLevel, cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, ProviderGemini, cfg.Backend.Provider)
	assert.Equal(t, backend.DefaultGeminiModel, cfg.Backend.Gemini.Model)
	assert.Empty(t, cfg.PersonaFile)
}

func TestLoadGeminiKeyFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("gemini_class", "legacy-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "legacy-key", cfg.Backend.Gemini.APIKey)

	t.Setenv("GEMINI_API_KEY", "primary-key")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "primary-key", cfg.Backend.Gemini.APIKey)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string][2]string{
		"port":       {"PORT", "80 80"},
		"log level":  {"LOG_LEVEL", "loud"},
		"log format": {"LOG_FORMAT", "xml"},
		"backend":    {"CHAT_BACKEND", "openai"},
		"top p":      {"ARK_TOP_P", "1.5"},
		"top p text": {"ARK_TOP_P", "high"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(kv[0], kv[1])
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadArk(t *testing.T) {
	clearEnv(t)
	t.Setenv("CHAT_BACKEND", "ARK")
	t.Setenv("ARK_API_KEY", "k")
	t.Setenv("Model", "ep-123")
	t.Setenv("PORT", "127.0.0.1:9000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ProviderArk, cfg.Backend.Provider)
	assert.Equal(t, "ep-123", cfg.Backend.Ark.Model)
	assert.True(t, cfg.Backend.Ark.Enabled())
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
}

func TestNewBackendWithoutCredentials(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)

	_, err = cfg.Backend.NewBackend(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, backend.ErrUnavailable))

	cfg.Backend.Provider = ProviderArk
	_, err = cfg.Backend.NewBackend(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, backend.ErrUnavailable))
}
