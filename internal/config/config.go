package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath   string     `env:"DB_PATH" envDefault:"data/planetquest.db"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	SPADir   string     `env:"SPA_DIR" envDefault:"../web/dist"`
	RedisURL string     `env:"REDIS_URL"`

	TickHz           int           `env:"TICK_HZ" envDefault:"10"`
	TriggerRange     float64       `env:"TRIGGER_RANGE_METERS" envDefault:"5"`
	DisplayDelay     time.Duration `env:"DISPLAY_DELAY" envDefault:"1s"`
	SessionIdle      time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"30m"`
	Locale           string        `env:"LOCALE" envDefault:"en"`
	PlacementWorkers int           `env:"PLACEMENT_WORKERS" envDefault:"4"`
	SeedDemo         bool          `env:"SEED_DEMO" envDefault:"true"`

	AdminUser         string `env:"ADMIN_USER" envDefault:"admin"`
	AdminPasswordHash string `env:"ADMIN_PASSWORD_HASH"`
}

// Load reads an optional .env file from the working directory, then parses
// the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if cfg.TickHz <= 0 {
		return nil, fmt.Errorf("TICK_HZ must be positive, got %d", cfg.TickHz)
	}
	if cfg.TriggerRange <= 0 {
		return nil, fmt.Errorf("TRIGGER_RANGE_METERS must be positive, got %v", cfg.TriggerRange)
	}
	return &cfg, nil
}

// TickInterval is the period of the session tick loop.
func (c *Config) TickInterval() time.Duration {
	return time.Second / time.Duration(c.TickHz)
}
