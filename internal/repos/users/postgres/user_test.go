package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fastprodman/surveyledger/internal/infra/pgtestutil"
	"github.com/fastprodman/surveyledger/internal/repos/users"
)

func TestUsers_CreateAndGet(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()

	repo := New(db)

	created, err := repo.Create(ctx, users.User{Username: "acme", PasswordHash: "h", Role: users.RoleBusiness})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == 0 || created.BalanceMinor != 0 || created.CreatedAt.IsZero() {
		t.Fatalf("unexpected created user: %+v", created)
	}

	got, err := repo.GetByUsername(ctx, "acme")
	if err != nil {
		t.Fatalf("get by username: %v", err)
	}
	if got.ID != created.ID || got.Role != users.RoleBusiness {
		t.Fatalf("got %+v, want id %d business", got, created.ID)
	}

	_, err = repo.Create(ctx, users.User{Username: "acme", PasswordHash: "h", Role: users.RoleParticipant})
	if !errors.Is(err, users.ErrUsernameTaken) {
		t.Fatalf("duplicate username: want ErrUsernameTaken, got %v", err)
	}

	_, err = repo.Get(ctx, created.ID+100)
	if !errors.Is(err, users.ErrUserNotFound) {
		t.Fatalf("missing: want ErrUserNotFound, got %v", err)
	}
}

func TestUsers_SingleAdmin(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()

	repo := New(db)

	_, err := repo.Create(ctx, users.User{Username: "root", PasswordHash: "h", Role: users.RoleAdmin})
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}

	_, err = repo.Create(ctx, users.User{Username: "root2", PasswordHash: "h", Role: users.RoleAdmin})
	if !errors.Is(err, users.ErrAdminExists) {
		t.Fatalf("second admin: want ErrAdminExists, got %v", err)
	}

	admins, err := repo.ListByRole(ctx, users.RoleAdmin)
	if err != nil {
		t.Fatalf("list admins: %v", err)
	}
	if len(admins) != 1 || admins[0].Username != "root" {
		t.Fatalf("admins: %+v", admins)
	}
}
