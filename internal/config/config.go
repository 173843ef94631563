package config

import (
	"time"

	"github.com/shopspring/decimal"
)

type PostgresConfig struct {
	DSN             string        `env:"PG_DSN"`
	MaxOpenConns    int           `env:"PG_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `env:"PG_MAX_IDLE_CONNS" default:"10"`
	ConnMaxIdleTime time.Duration `env:"PG_CONN_MAX_IDLE_TIME" default:"5m"`
	ConnMaxLifetime time.Duration `env:"PG_CONN_MAX_LIFETIME" default:"30m"`
	// TxIsolation is used for ledger mutations. Balance rows are always
	// locked with SELECT ... FOR UPDATE, so read committed is sufficient.
	TxIsolation string `env:"PG_TX_ISOLATION" default:"read committed"`
}

type LedgerConfig struct {
	// CommissionRate is the share of a survey budget credited to the admin
	// account at funding time.
	CommissionRate decimal.Decimal `env:"LEDGER_COMMISSION_RATE" default:"0.4"`
}

type AuthConfig struct {
	JWTSecret string        `env:"AUTH_JWT_SECRET"`
	TokenTTL  time.Duration `env:"AUTH_TOKEN_TTL" default:"24h"`
}

type RateLimitConfig struct {
	RPS   float64 `env:"RATE_LIMIT_RPS" default:"5"`
	Burst int     `env:"RATE_LIMIT_BURST" default:"10"`
}
