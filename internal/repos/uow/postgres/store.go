package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/fastprodman/surveyledger/internal/infra/pgutils"
	"github.com/fastprodman/surveyledger/internal/repos/surveys"
	surveyspg "github.com/fastprodman/surveyledger/internal/repos/surveys/postgres"
	"github.com/fastprodman/surveyledger/internal/repos/transactions"
	transactionspg "github.com/fastprodman/surveyledger/internal/repos/transactions/postgres"
	"github.com/fastprodman/surveyledger/internal/repos/uow"
	"github.com/fastprodman/surveyledger/internal/repos/users"
	userspg "github.com/fastprodman/surveyledger/internal/repos/users/postgres"
)

var (
	_ uow.Store      = (*Store)(nil)
	_ uow.Classifier = (*Store)(nil)
)

// Store runs units of work as Postgres transactions. Read-write units use
// the configured isolation level; read-only units always use a read-only
// REPEATABLE READ transaction so every query sees the same snapshot.
type Store struct {
	db        *sql.DB
	isolation sql.IsolationLevel
}

func New(db *sql.DB, isolation sql.IsolationLevel) *Store {
	return &Store{db: db, isolation: isolation}
}

func (s *Store) Begin(ctx context.Context, mode uow.Mode) (uow.Tx, error) {
	opts := &sql.TxOptions{Isolation: s.isolation}
	if mode == uow.ReadOnly {
		opts = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	}

	tx, err := pgutils.BeginTx(ctx, s.db, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", uow.ErrStoreUnavailable, err)
	}

	return &pgTx{
		tx:           tx,
		users:        userspg.New(tx),
		transactions: transactionspg.New(tx),
		surveys:      surveyspg.New(tx),
	}, nil
}

func (s *Store) Classify(err error) error {
	if err == nil ||
		errors.Is(err, uow.ErrConcurrencyConflict) ||
		errors.Is(err, uow.ErrStoreUnavailable) {
		return err
	}

	switch {
	case isConflict(err):
		return fmt.Errorf("%w: %w", uow.ErrConcurrencyConflict, err)
	case isUnavailable(err):
		return fmt.Errorf("%w: %w", uow.ErrStoreUnavailable, err)
	default:
		return err
	}
}

func isConflict(err error) bool {
	switch pgutils.SQLState(err) {
	case pgutils.CodeSerializationFailure, pgutils.CodeDeadlockDetected:
		return true
	default:
		return false
	}
}

func isUnavailable(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}

	code := pgutils.SQLState(err)
	// class 08: connection exception, 57P0x: server shutting down
	return strings.HasPrefix(code, "08") || strings.HasPrefix(code, "57P0")
}

type pgTx struct {
	tx           *sql.Tx
	users        users.Users
	transactions transactions.Transactions
	surveys      surveys.Surveys
}

func (t *pgTx) Users() users.Users                      { return t.users }
func (t *pgTx) Transactions() transactions.Transactions { return t.transactions }
func (t *pgTx) Surveys() surveys.Surveys                { return t.surveys }

func (t *pgTx) Commit() error {
	err := t.tx.Commit()
	if err == nil {
		return nil
	}

	if isConflict(err) {
		return fmt.Errorf("%w: commit: %w", uow.ErrConcurrencyConflict, err)
	}

	return fmt.Errorf("%w: commit: %w", uow.ErrStoreUnavailable, err)
}

func (t *pgTx) Rollback() error {
	err := t.tx.Rollback()
	if err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rollback: %w", err)
	}

	return nil
}
