package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const envPrefix = "SEVAK"

// Config is read from SEVAK_* environment variables (and .env).
type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Debug       bool   `envconfig:"DEBUG" default:"false"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	// Optional: without a database subscribers live in memory and chat events are dropped
	DatabaseURL string `envconfig:"DATABASE_URL"`

	OpenAIAPIKey  string `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL string `envconfig:"OPENAI_BASE_URL"`
	OpenAIModel   string `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`

	ChatMaxTokens     int           `envconfig:"CHAT_MAX_TOKENS" default:"400"`
	ChatTemperature   float32       `envconfig:"CHAT_TEMPERATURE" default:"0.5"`
	ChatHistoryWindow int           `envconfig:"CHAT_HISTORY_WINDOW" default:"4"`
	ChatTimeout       time.Duration `envconfig:"CHAT_TIMEOUT" default:"30s"`

	SessionTTL           time.Duration `envconfig:"SESSION_TTL" default:"30m"`
	SessionSweepInterval time.Duration `envconfig:"SESSION_SWEEP_INTERVAL" default:"1m"`

	KnowledgeFile      string `envconfig:"KNOWLEDGE_FILE"`
	KnowledgeObjectKey string `envconfig:"KNOWLEDGE_OBJECT_KEY" default:"knowledge/sevakai.md"`
	ChatbotFile        string `envconfig:"CHATBOT_FILE"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"sevakai-content"`
	S3Region    string `envconfig:"S3_REGION" default:"ap-south-1"`

	SentryDSN   string `envconfig:"SENTRY_DSN"`
	AdminAPIKey string `envconfig:"ADMIN_API_KEY"`
}

// Load reads .env if present, then the environment, and validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.ChatMaxTokens <= 0 {
		return fmt.Errorf("CHAT_MAX_TOKENS must be positive, got %d", c.ChatMaxTokens)
	}
	if c.ChatTemperature < 0 || c.ChatTemperature > 2 {
		return fmt.Errorf("CHAT_TEMPERATURE must be between 0 and 2, got %.2f", c.ChatTemperature)
	}
	if c.ChatHistoryWindow < 0 {
		return fmt.Errorf("CHAT_HISTORY_WINDOW cannot be negative, got %d", c.ChatHistoryWindow)
	}
	for name, d := range map[string]time.Duration{
		"CHAT_TIMEOUT":           c.ChatTimeout,
		"SESSION_TTL":            c.SessionTTL,
		"SESSION_SWEEP_INTERVAL": c.SessionSweepInterval,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}
	return nil
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) HasDatabase() bool {
	return c.DatabaseURL != ""
}

func (c *Config) HasAdminKey() bool {
	return c.AdminAPIKey != ""
}
