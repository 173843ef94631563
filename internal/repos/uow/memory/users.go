package memory

import (
	"context"
	"slices"

	"github.com/fastprodman/surveyledger/internal/repos/users"
	"github.com/fastprodman/surveyledger/pkg/money"
)

type usersRepo struct{ tx *memTx }

func (r usersRepo) Create(_ context.Context, u users.User) (users.User, error) {
	err := r.tx.check("users.create", true)
	if err != nil {
		return users.User{}, err
	}

	st := r.tx.st
	for _, existing := range st.users {
		if existing.Username == u.Username {
			return users.User{}, users.ErrUsernameTaken
		}
		if u.Role == users.RoleAdmin && existing.Role == users.RoleAdmin {
			return users.User{}, users.ErrAdminExists
		}
	}

	u.ID = st.nextUserID
	st.nextUserID++
	u.CreatedAt = r.tx.store.now()
	st.users[u.ID] = u

	return u, nil
}

func (r usersRepo) Get(_ context.Context, userID uint64) (users.User, error) {
	err := r.tx.check("users.get", false)
	if err != nil {
		return users.User{}, err
	}

	u, ok := r.tx.st.users[userID]
	if !ok {
		return users.User{}, users.ErrUserNotFound
	}

	return u, nil
}

func (r usersRepo) GetByUsername(_ context.Context, username string) (users.User, error) {
	err := r.tx.check("users.get_by_username", false)
	if err != nil {
		return users.User{}, err
	}

	for _, u := range r.tx.st.users {
		if u.Username == username {
			return u, nil
		}
	}

	return users.User{}, users.ErrUserNotFound
}

func (r usersRepo) ListByRole(_ context.Context, role users.Role) ([]users.User, error) {
	err := r.tx.check("users.list_by_role", false)
	if err != nil {
		return nil, err
	}

	return r.sorted(func(u users.User) bool { return u.Role == role }), nil
}

func (r usersRepo) List(_ context.Context) ([]users.User, error) {
	err := r.tx.check("users.list", false)
	if err != nil {
		return nil, err
	}

	return r.sorted(func(users.User) bool { return true }), nil
}

func (r usersRepo) sorted(keep func(users.User) bool) []users.User {
	var out []users.User
	for _, u := range r.tx.st.users {
		if keep(u) {
			out = append(out, u)
		}
	}

	slices.SortFunc(out, func(a, b users.User) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		default:
			return 0
		}
	})

	return out
}

// LockAndGetBalance needs no lock: the whole store is held by the unit of work.
func (r usersRepo) LockAndGetBalance(_ context.Context, userID uint64) (int64, error) {
	err := r.tx.check("users.lock_and_get_balance", true)
	if err != nil {
		return 0, err
	}

	u, ok := r.tx.st.users[userID]
	if !ok {
		return 0, users.ErrUserNotFound
	}

	return u.BalanceMinor, nil
}

func (r usersRepo) IncreaseBalance(_ context.Context, userID uint64, amount int64) (int64, error) {
	err := r.tx.check("users.increase_balance", true)
	if err != nil {
		return 0, err
	}

	u, ok := r.tx.st.users[userID]
	if !ok {
		return 0, users.ErrUserNotFound
	}

	balance, err := money.Add(u.BalanceMinor, amount)
	if err != nil {
		return 0, users.ErrBalanceOverflow
	}

	u.BalanceMinor = balance
	r.tx.st.users[userID] = u

	return u.BalanceMinor, nil
}

func (r usersRepo) DecreaseBalance(_ context.Context, userID uint64, amount int64) (int64, error) {
	err := r.tx.check("users.decrease_balance", true)
	if err != nil {
		return 0, err
	}

	u, ok := r.tx.st.users[userID]
	if !ok {
		return 0, users.ErrUserNotFound
	}
	if u.BalanceMinor < amount {
		return 0, users.ErrInsufficientFunds
	}

	u.BalanceMinor -= amount
	r.tx.st.users[userID] = u

	return u.BalanceMinor, nil
}
