package main

import (
	"log/slog"
	"time"

	"github.com/fastprodman/surveyledger/internal/config"
)

type apiConfig struct {
	Port            uint16        `env:"APP_PORT" default:"8080"`
	LogLevel        slog.Level    `env:"APP_LOG_LEVEL" default:"INFO"`
	ShutdownTimeout time.Duration `env:"APP_SHUTDOWN_TIMEOUT" default:"15s"`

	Postgres  config.PostgresConfig
	Ledger    config.LedgerConfig
	Auth      config.AuthConfig
	RateLimit config.RateLimitConfig
}

// envFile names the optional dotenv file read before the environment.
type envFile struct {
	Path string `env:"APP_ENV_FILE" default:".env"`
}
