// Package uow defines the unit of work the ledger runs every operation in.
// A Tx groups reads and writes across the users, transactions and surveys
// repositories so they become visible together or not at all.
package uow

import (
	"context"
	"errors"
	"fmt"

	"github.com/fastprodman/surveyledger/internal/repos/surveys"
	"github.com/fastprodman/surveyledger/internal/repos/transactions"
	"github.com/fastprodman/surveyledger/internal/repos/users"
)

var (
	// ErrConcurrencyConflict means the store aborted the unit of work because
	// it raced another one. The caller may re-issue the whole operation.
	ErrConcurrencyConflict = errors.New("concurrency conflict")
	// ErrStoreUnavailable means the store could not begin, run or commit the
	// unit of work. Nothing was committed.
	ErrStoreUnavailable = errors.New("store unavailable")
)

type Mode int

const (
	ReadWrite Mode = iota
	// ReadOnly units see a single consistent snapshot and must not write.
	ReadOnly
)

func (m Mode) String() string {
	if m == ReadOnly {
		return "read-only"
	}

	return "read-write"
}

type Tx interface {
	Users() users.Users
	Transactions() transactions.Transactions
	Surveys() surveys.Surveys
	Commit() error
	// Rollback is a no-op after Commit.
	Rollback() error
}

type Store interface {
	Begin(ctx context.Context, mode Mode) (Tx, error)
}

// Classifier is implemented by stores that can translate their native errors
// into ErrConcurrencyConflict or ErrStoreUnavailable. Other errors must be
// returned unchanged.
type Classifier interface {
	Classify(err error) error
}

// Run executes fn inside a unit of work. fn's error rolls everything back;
// a nil return commits. Run never retries.
func Run(ctx context.Context, store Store, mode Mode, fn func(tx Tx) error) error {
	tx, err := store.Begin(ctx, mode)
	if err != nil {
		return classify(store, err)
	}

	err = fn(tx)
	if err != nil {
		rbErr := tx.Rollback()
		if rbErr != nil {
			err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}

		return classify(store, err)
	}

	err = tx.Commit()
	if err != nil {
		return classify(store, err)
	}

	return nil
}

func classify(store Store, err error) error {
	c, ok := store.(Classifier)
	if !ok {
		return err
	}

	return c.Classify(err)
}

// IsRetryable reports whether re-issuing the operation may succeed.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrencyConflict)
}
