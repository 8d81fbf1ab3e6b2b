// Package config loads runtime configuration from the environment. A .env
// file in the working directory is honored when present.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the optional integrations around the processing run. All of
// them default to off; the core CSV-in/CSV-out path needs no configuration.
type Config struct {
	LogLevel    string `env:"PAY_LOG_LEVEL" envDefault:"info"`
	NATSURL     string `env:"PAY_NATS_URL"`
	PostgresDSN string `env:"PAY_POSTGRES_DSN"`
	MetricsAddr string `env:"PAY_METRICS_ADDR"`
}

// Load reads .env (if any) and then the process environment.
func Load() (Config, error) {
	// Missing .env is the normal case.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
