// Command ledgerctl is the operator CLI for the survey ledger: it creates the
// commission (admin) account, prints wallets and audits the books.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fastprodman/surveyledger/internal/config"
	"github.com/fastprodman/surveyledger/internal/infra/logging"
	"github.com/fastprodman/surveyledger/internal/infra/pgutils"
	uowpg "github.com/fastprodman/surveyledger/internal/repos/uow/postgres"
	"github.com/fastprodman/surveyledger/pkg/envconf"
)

type ctlConfig struct {
	LogLevel slog.Level `env:"APP_LOG_LEVEL" default:"WARN"`

	Postgres config.PostgresConfig
	Ledger   config.LedgerConfig
	// Only the password policy of identity is used; the secret is never
	// needed to create an account.
	JWTSecret string `env:"AUTH_JWT_SECRET" default:"ledgerctl-unused-secret"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ledgerctl: %v\n", err)
		//nolint:gocritic
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	path, ok := os.LookupEnv("APP_ENV_FILE")
	if !ok {
		path = ".env"
	}

	err := envconf.LoadDotEnv(path)
	if err != nil {
		return fmt.Errorf("load env file: %w", err)
	}

	cfg := new(ctlConfig)

	err = envconf.Load(cfg)
	if err != nil {
		return fmt.Errorf("init config: %w", err)
	}

	logging.SetupJSON(cfg.LogLevel)

	isolation, err := pgutils.ParseIsolation(cfg.Postgres.TxIsolation)
	if err != nil {
		return fmt.Errorf("parse PG_TX_ISOLATION: %w", err)
	}

	db, err := pgutils.OpenDB(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	//nolint:errcheck
	defer db.Close()

	a := &app{
		store:          uowpg.New(db, isolation),
		commissionRate: cfg.Ledger.CommissionRate,
		jwtSecret:      cfg.JWTSecret,
		out:            os.Stdout,
	}

	return newRootCmd(a).ExecuteContext(ctx)
}
