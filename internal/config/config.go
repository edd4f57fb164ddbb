package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the process's environment-derived settings. Every field
// maps to an environment variable via the `env` struct tag; see Load.
type Config struct {
	HTTPAddr     string        `env:"HTTP_ADDR" envDefault:":8080"`
	ReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`

	CORSOrigins string `env:"CORS_ORIGINS"` // comma-separated allowed origins; empty = allow all (*)
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"40"`

	MetricsEnabled bool `env:"METRICS_ENABLED" envDefault:"true"`

	MaxUploadBytes int64         `env:"MAX_UPLOAD_BYTES" envDefault:"524288000"` // 500 MiB
	SessionTTL     time.Duration `env:"SESSION_TTL" envDefault:"1h"`

	// LLM naming (optional — disabled, falling back to deterministic names,
	// when LLMProvider is empty).
	LLMProvider string        `env:"LLM_PROVIDER"` // "openai", "anthropic", or empty to disable
	LLMModel    string        `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`
	LLMAPIKey   string        `env:"LLM_API_KEY"`
	LLMTimeout  time.Duration `env:"LLM_TIMEOUT" envDefault:"30s"`

	// Segmenter tunables, overridable for testing and tuning without a redeploy.
	SimilarityThreshold float64 `env:"SIMILARITY_THRESHOLD" envDefault:"0.3"`
	MinEraWeeks         int     `env:"MIN_ERA_WEEKS" envDefault:"2"`
	MinEraMs            int64   `env:"MIN_ERA_MS" envDefault:"3600000"`
}

// Validate checks invariants that can't be expressed as struct tags.
// The LLM credential is deliberately not checked here: its absence must
// fail loudly on first LLM call, not at startup.
func (c *Config) Validate() error {
	if c.LLMProvider != "" && c.LLMProvider != "openai" && c.LLMProvider != "anthropic" {
		return fmt.Errorf("unrecognized LLM_PROVIDER %q: want \"openai\", \"anthropic\", or empty", c.LLMProvider)
	}
	return nil
}

// Overrides holds CLI flag values that take priority over env vars.
type Overrides struct {
	EnvFile  string
	HTTPAddr string
	LogLevel string
}

// Load reads configuration from a .env file, environment variables, and
// CLI overrides. Priority: CLI flags > environment variables > .env file
// > struct defaults.
func Load(overrides Overrides) (*Config, error) {
	envFile := overrides.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		_ = godotenv.Load(envFile)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if overrides.HTTPAddr != "" {
		cfg.HTTPAddr = overrides.HTTPAddr
	}
	if overrides.LogLevel != "" {
		cfg.LogLevel = overrides.LogLevel
	}

	return cfg, nil
}
