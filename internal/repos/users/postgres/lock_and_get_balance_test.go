package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fastprodman/surveyledger/internal/infra/pgtestutil"
	"github.com/fastprodman/surveyledger/internal/repos/users"
)

func TestUsers_LockAndGetBalance(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	userID := pgtestutil.SeedUser(t, db, "biz", "business", 777)

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer func() { _ = tx.Rollback() }()

	repo := New(tx)

	bal, err := repo.LockAndGetBalance(ctx, userID)
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	if bal != 777 {
		t.Fatalf("balance: want 777, got %d", bal)
	}

	_, err = repo.LockAndGetBalance(ctx, userID+1000)
	if !errors.Is(err, users.ErrUserNotFound) {
		t.Fatalf("missing user: want ErrUserNotFound, got %v", err)
	}
}
