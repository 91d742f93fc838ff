package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetEnvOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal string
		expected   string
	}{
		{"uses env value", "PAD_TEST_VAR_1", "hello", "default", "hello"},
		{"uses default when empty", "PAD_TEST_VAR_2", "", "default", "default"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.envValue)
			assert.Equal(t, tc.expected, getEnvOrDefault(tc.key, tc.defaultVal))
		})
	}
}

func TestGetEnvAsDurationOrDefault(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		expected time.Duration
	}{
		{"parses duration", "45s", 45 * time.Second},
		{"uses default for empty", "", time.Minute},
		{"uses default for garbage", "soon", time.Minute},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("PAD_TEST_TIMEOUT", tc.envValue)
			assert.Equal(t, tc.expected, getEnvAsDurationOrDefault("PAD_TEST_TIMEOUT", time.Minute))
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "ENV", "LOG_LEVEL", "DB_DRIVER", "DATABASE_URL", "LLM_BASE_URL", "OPENAI_API_KEY", "LLM_DEFAULT_MODEL", "GENERATION_TIMEOUT", "AUTH_DIR"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "8100", cfg.Port)
	assert.Equal(t, "sqlite3", cfg.DBDriver)
	assert.Equal(t, "pad-chat.db", cfg.DatabaseURL)
	assert.Equal(t, "http://localhost:11434/v1/", cfg.LLMBaseURL)
	assert.Equal(t, 120*time.Second, cfg.GenerationTimeout)
	assert.Equal(t, "./har_and_cookies", cfg.AuthDir)
	assert.False(t, cfg.IsDevelopment())
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	cfg := &Config{DBDriver: "mysql", GenerationTimeout: time.Second}
	assert.ErrorContains(t, cfg.Validate(), "unsupported DB_DRIVER")

	cfg = &Config{DBDriver: "pgx", GenerationTimeout: 0}
	assert.ErrorContains(t, cfg.Validate(), "GENERATION_TIMEOUT")

	cfg = &Config{DBDriver: "pgx", GenerationTimeout: time.Second}
	assert.NoError(t, cfg.Validate())
}
