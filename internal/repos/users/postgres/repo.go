package users

import (
	"github.com/fastprodman/surveyledger/internal/infra/pgutils"
	"github.com/fastprodman/surveyledger/internal/repos/users"
)

var _ users.Users = (*usersRepo)(nil)

type usersRepo struct{ q pgutils.Querier }

// New binds the repository to q, usually the *sql.Tx of a unit of work.
func New(q pgutils.Querier) *usersRepo {
	return &usersRepo{q: q}
}

const userColumns = `id, username, password_hash, role, balance, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (users.User, error) {
	var (
		u    users.User
		role string
	)

	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &role, &u.BalanceMinor, &u.CreatedAt)
	if err != nil {
		return users.User{}, err
	}

	u.Role = users.Role(role)

	return u, nil
}
