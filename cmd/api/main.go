package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/fastprodman/surveyledger/internal/api"
	"github.com/fastprodman/surveyledger/internal/infra/logging"
	"github.com/fastprodman/surveyledger/internal/infra/metrics"
	"github.com/fastprodman/surveyledger/internal/infra/pgutils"
	uowpg "github.com/fastprodman/surveyledger/internal/repos/uow/postgres"
	"github.com/fastprodman/surveyledger/internal/services/identity"
	"github.com/fastprodman/surveyledger/internal/services/ledger"
	"github.com/fastprodman/surveyledger/pkg/envconf"
	"github.com/fastprodman/surveyledger/pkg/shutdownqueue"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error running api: %v\n", err)
		//nolint:gocritic
		os.Exit(1)
	}
}

func run(ctx context.Context) (retErr error) {
	ef := new(envFile)

	err := envconf.Load(ef)
	if err != nil {
		return fmt.Errorf("read env file setting: %w", err)
	}

	err = envconf.LoadDotEnv(ef.Path)
	if err != nil {
		return fmt.Errorf("load env file: %w", err)
	}

	cfg := new(apiConfig)

	err = envconf.Load(cfg)
	if err != nil {
		return fmt.Errorf("init config: %w", err)
	}

	logging.SetupJSON(cfg.LogLevel)

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		serr := shutdownqueue.Shutdown(shutdownCtx)
		if serr != nil {
			retErr = errors.Join(retErr, serr)
		}
	}()

	// --- Infra ---
	db, err := pgutils.OpenDB(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}

	shutdownqueue.Add("postgres", func(context.Context) error {
		return db.Close()
	})

	isolation, err := pgutils.ParseIsolation(cfg.Postgres.TxIsolation)
	if err != nil {
		return fmt.Errorf("parse PG_TX_ISOLATION: %w", err)
	}

	store := uowpg.New(db, isolation)

	// The commission account must exist before any survey can be funded.
	adminID, err := ledger.ResolveAdmin(ctx, store)
	if err != nil {
		return fmt.Errorf("resolve admin account: %w", err)
	}

	m := metrics.New()

	// --- Services ---
	idSrv, err := identity.New(store, identity.Config{
		JWTSecret: cfg.Auth.JWTSecret,
		TokenTTL:  cfg.Auth.TokenTTL,
	})
	if err != nil {
		return fmt.Errorf("init identity: %w", err)
	}

	ledgerSrv, err := ledger.New(store, ledger.Config{
		CommissionRate: cfg.Ledger.CommissionRate,
		AdminID:        adminID,
	}, ledger.WithLogger(slog.Default()), ledger.WithMetrics(m))
	if err != nil {
		return fmt.Errorf("init ledger: %w", err)
	}

	// --- HTTP server ---
	srv := api.NewServer(cfg.Port, api.NewRouter(api.Deps{
		Ledger:    ledgerSrv,
		Identity:  idSrv,
		Metrics:   m,
		RateLimit: cfg.RateLimit,
	}))

	shutdownqueue.Add("http server", func(c context.Context) error {
		slog.Info("Shut down server")

		err := srv.Shutdown(c)
		if err != nil {
			return fmt.Errorf("shutdown srv: %w", err)
		}

		return nil
	})

	errCh := make(chan error, 1)

	go func() {
		serr := srv.ListenAndServe()
		// http.ErrServerClosed is the normal path during Shutdown
		if serr != nil && !errors.Is(serr, http.ErrServerClosed) {
			errCh <- serr
			return
		}

		errCh <- nil
	}()

	slog.Info("API started",
		"port", cfg.Port,
		"admin_id", adminID,
		"commission_rate", ledgerSrv.CommissionRate().String(),
	)

	select {
	case <-ctx.Done():
		return nil
	case serr := <-errCh:
		if serr != nil {
			return fmt.Errorf("server error: %w", serr)
		}

		return nil
	}
}
