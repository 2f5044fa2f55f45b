package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the application configuration.
type Config struct {
	ServerPort     int      `env:"PORT" envDefault:"8080"`
	DatabasePath   string   `env:"DATABASE_PATH" envDefault:"./simplecomm.db"`
	AppEnv         string   `env:"APP_ENV" envDefault:"development"`
	LogLevel       string   `env:"LOG_LEVEL" envDefault:"info"`
	JWTSecret      string   `env:"JWT_SECRET" envDefault:"change-me-in-production"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	AI      AIConfig
	Geocode GeocodeConfig
	Stream  StreamConfig
	Jobs    JobsConfig
}

// AIConfig configures the generative-AI proxy. Gemini is reached through its
// OpenAI-compatible endpoint.
type AIConfig struct {
	APIKey  string        `env:"GEMINI_API_KEY"`
	BaseURL string        `env:"AI_BASE_URL" envDefault:"https://generativelanguage.googleapis.com/v1beta/openai/"`
	Model   string        `env:"AI_MODEL" envDefault:"gemini-2.0-flash"`
	Timeout time.Duration `env:"AI_TIMEOUT" envDefault:"10s"`
}

// GeocodeConfig configures the Nominatim lookup used by the map view.
type GeocodeConfig struct {
	BaseURL   string        `env:"GEOCODE_URL" envDefault:"https://nominatim.openstreetmap.org/search"`
	UserAgent string        `env:"GEOCODE_USER_AGENT" envDefault:"simplecomm-be/1.0"`
	Interval  time.Duration `env:"GEOCODE_INTERVAL" envDefault:"200ms"`
	Timeout   time.Duration `env:"GEOCODE_TIMEOUT" envDefault:"10s"`
}

// StreamConfig bounds the reload retries of realtime subscriptions.
type StreamConfig struct {
	MaxAttempts     uint          `env:"STREAM_MAX_ATTEMPTS" envDefault:"5"`
	InitialInterval time.Duration `env:"STREAM_INITIAL_BACKOFF" envDefault:"100ms"`
	MaxInterval     time.Duration `env:"STREAM_MAX_BACKOFF" envDefault:"5s"`
}

// JobsConfig holds cron expressions for background jobs.
type JobsConfig struct {
	ReconcileSchedule    string        `env:"RECONCILE_SCHEDULE" envDefault:"*/15 * * * *"`
	DuesReminderSchedule string        `env:"DUES_REMINDER_SCHEDULE" envDefault:"0 9 * * *"`
	StatsInterval        time.Duration `env:"STATS_INTERVAL" envDefault:"15s"`
}

// Load loads configuration from environment variables or sets defaults.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.ServerPort <= 0 || cfg.ServerPort > 65535 {
		return nil, fmt.Errorf("invalid PORT %d", cfg.ServerPort)
	}
	return &cfg, nil
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
