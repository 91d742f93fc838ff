package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port     string
	Env      string
	LogLevel string

	// Database
	DBDriver    string
	DatabaseURL string

	// Generation provider
	LLMBaseURL        string
	LLMAPIKey         string
	LLMDefaultModel   string
	GenerationTimeout time.Duration

	// Optional provider auth artifacts (cookies, .har files)
	AuthDir string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		Port:              getEnvOrDefault("PORT", "8100"),
		Env:               getEnvOrDefault("ENV", "production"),
		LogLevel:          getEnvOrDefault("LOG_LEVEL", "info"),
		DBDriver:          getEnvOrDefault("DB_DRIVER", "sqlite3"),
		DatabaseURL:       getEnvOrDefault("DATABASE_URL", "pad-chat.db"),
		LLMBaseURL:        getEnvOrDefault("LLM_BASE_URL", "http://localhost:11434/v1/"),
		LLMAPIKey:         os.Getenv("OPENAI_API_KEY"),
		LLMDefaultModel:   getEnvOrDefault("LLM_DEFAULT_MODEL", "gpt-4"),
		GenerationTimeout: getEnvAsDurationOrDefault("GENERATION_TIMEOUT", 120*time.Second),
		AuthDir:           getEnvOrDefault("AUTH_DIR", "./har_and_cookies"),
	}
}

func (c *Config) Validate() error {
	switch c.DBDriver {
	case "sqlite3", "pgx":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (want sqlite3 or pgx)", c.DBDriver)
	}
	if c.GenerationTimeout <= 0 {
		return fmt.Errorf("GENERATION_TIMEOUT must be positive, got %s", c.GenerationTimeout)
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}
