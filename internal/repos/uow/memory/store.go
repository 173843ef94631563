// Package memory is an in-process uow.Store. Units of work run one at a time
// against a private copy of the state that replaces the shared state on
// Commit, which gives serializable isolation and all-or-nothing commits.
// Failpoints let tests make any repository call, Begin or Commit fail.
package memory

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/fastprodman/surveyledger/internal/repos/surveys"
	"github.com/fastprodman/surveyledger/internal/repos/transactions"
	"github.com/fastprodman/surveyledger/internal/repos/uow"
	"github.com/fastprodman/surveyledger/internal/repos/users"
)

// Failpoint names accepted by FailOn besides the repository operations
// ("users.create", "transactions.insert", "surveys.insert", ...).
const (
	FailBegin  = "begin"
	FailCommit = "commit"
)

var (
	ErrTxDone   = errors.New("unit of work already finished")
	ErrReadOnly = errors.New("write in read-only unit of work")
)

var _ uow.Store = (*Store)(nil)

type Store struct {
	// sem admits one unit of work at a time.
	sem chan struct{}

	mu         sync.Mutex
	st         *state
	failpoints map[string]error
	now        func() time.Time
}

func New() *Store {
	return &Store{
		sem:        make(chan struct{}, 1),
		st:         newState(),
		failpoints: map[string]error{},
		now:        time.Now,
	}
}

// FailOn makes every later call of op fail with err until ClearFailpoints.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failpoints[op] = err
}

func (s *Store) ClearFailpoints() {
	s.mu.Lock()
	defer s.mu.Unlock()

	clear(s.failpoints)
}

func (s *Store) fail(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err, ok := s.failpoints[op]
	if !ok {
		return nil
	}

	return fmt.Errorf("%s: %w", op, err)
}

func (s *Store) Begin(ctx context.Context, mode uow.Mode) (uow.Tx, error) {
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: begin: %w", uow.ErrStoreUnavailable, ctx.Err())
	}

	err := s.fail(FailBegin)
	if err != nil {
		<-s.sem
		return nil, fmt.Errorf("%w: begin: %w", uow.ErrStoreUnavailable, err)
	}

	s.mu.Lock()
	work := s.st.clone()
	s.mu.Unlock()

	return &memTx{store: s, st: work, mode: mode}, nil
}

type state struct {
	users   map[uint64]users.User
	records []transactions.Record
	surveys map[uint64]surveys.Survey

	nextUserID, nextRecordID, nextSurveyID uint64
}

func newState() *state {
	return &state{
		users:        map[uint64]users.User{},
		surveys:      map[uint64]surveys.Survey{},
		nextUserID:   1,
		nextRecordID: 1,
		nextSurveyID: 1,
	}
}

func (s *state) clone() *state {
	out := *s
	out.users = maps.Clone(s.users)
	out.records = slices.Clone(s.records)
	out.surveys = make(map[uint64]surveys.Survey, len(s.surveys))
	for id, sv := range s.surveys {
		sv.Questions = slices.Clone(sv.Questions)
		out.surveys[id] = sv
	}

	return &out
}

type memTx struct {
	store *Store
	st    *state
	mode  uow.Mode
	done  bool
}

func (t *memTx) Users() users.Users                      { return usersRepo{t} }
func (t *memTx) Transactions() transactions.Transactions { return transactionsRepo{t} }
func (t *memTx) Surveys() surveys.Surveys                { return surveysRepo{t} }

func (t *memTx) Commit() error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	defer func() { <-t.store.sem }()

	err := t.store.fail(FailCommit)
	if err != nil {
		return fmt.Errorf("%w: commit: %w", uow.ErrStoreUnavailable, err)
	}

	if t.mode == uow.ReadWrite {
		t.store.mu.Lock()
		t.store.st = t.st
		t.store.mu.Unlock()
	}

	return nil
}

func (t *memTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	<-t.store.sem

	return nil
}

// check guards every repository call.
func (t *memTx) check(op string, write bool) error {
	if t.done {
		return ErrTxDone
	}
	if write && t.mode == uow.ReadOnly {
		return fmt.Errorf("%s: %w", op, ErrReadOnly)
	}

	return t.store.fail(op)
}
