package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config configures the development board backend.
type Config struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath   string     `env:"DB_PATH" envDefault:"data/board.db"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	SeedDemo bool       `env:"SEED_DEMO" envDefault:"false"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}

// HostConfig configures the host CLI.
type HostConfig struct {
	APIURL    string        `env:"QUIZBOARD_API_URL" envDefault:"http://localhost:8080"`
	StatePath string        `env:"QUIZBOARD_STATE_PATH" envDefault:"quizboard.db"`
	Timeout   time.Duration `env:"QUIZBOARD_TIMEOUT" envDefault:"10s"`
	LogLevel  slog.Level    `env:"LOG_LEVEL" envDefault:"WARN"`
}

func LoadHost() (*HostConfig, error) {
	cfg, err := env.ParseAs[HostConfig]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}
