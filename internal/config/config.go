package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

// RequiredKeys are the settings that must be present before any signed-in
// feature is served.
var RequiredKeys = []string{"STORE_URL"}

type Config struct {
	HTTPAddr         string        `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel         slog.Level    `env:"LOG_LEVEL" envDefault:"INFO"`
	SPADir           string        `env:"SPA_DIR" envDefault:"../web/dist"`
	StoreURL         string        `env:"STORE_URL"`
	StoreAuthToken   string        `env:"STORE_AUTH_TOKEN"`
	GeminiAPIKey     string        `env:"GEMINI_API_KEY"`
	GeminiModel      string        `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
	HistorySaveDelay time.Duration `env:"HISTORY_SAVE_DELAY" envDefault:"5s"`
	SessionCookie    string        `env:"SESSION_COOKIE" envDefault:"study_session"`
	ClientIdleAfter  time.Duration `env:"CLIENT_IDLE_AFTER" envDefault:"30m"`
}

// Configured reports whether the identity and document store are set up.
// Without them the service only serves the configuration instructions.
func (c *Config) Configured() bool {
	return c.StoreURL != ""
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if cfg.HistorySaveDelay < 0 {
		return nil, fmt.Errorf("HISTORY_SAVE_DELAY must not be negative, got %s", cfg.HistorySaveDelay)
	}
	if cfg.ClientIdleAfter <= 0 {
		return nil, fmt.Errorf("CLIENT_IDLE_AFTER must be positive, got %s", cfg.ClientIdleAfter)
	}
	return &cfg, nil
}
