package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/surveyledger/internal/infra/pgutils"
	"github.com/fastprodman/surveyledger/internal/repos/users"
)

const singleAdminIndex = "users_single_admin_idx"

func (r *usersRepo) Create(ctx context.Context, u users.User) (users.User, error) {
	created, err := scanUser(r.q.QueryRowContext(ctx, `
		INSERT INTO users (username, password_hash, role, balance)
		VALUES ($1, $2, $3, $4)
		RETURNING `+userColumns,
		u.Username, u.PasswordHash, string(u.Role), u.BalanceMinor,
	))
	if err != nil {
		if pgutils.IsUniqueViolation(err) {
			if pgutils.ConstraintName(err) == singleAdminIndex {
				return users.User{}, users.ErrAdminExists
			}

			return users.User{}, users.ErrUsernameTaken
		}

		return users.User{}, fmt.Errorf("insert user: %w", err)
	}

	return created, nil
}

func (r *usersRepo) Get(ctx context.Context, userID uint64) (users.User, error) {
	u, err := scanUser(r.q.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
	`, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return users.User{}, users.ErrUserNotFound
		}

		return users.User{}, fmt.Errorf("get user: %w", err)
	}

	return u, nil
}

func (r *usersRepo) GetByUsername(ctx context.Context, username string) (users.User, error) {
	u, err := scanUser(r.q.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE username = $1
	`, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return users.User{}, users.ErrUserNotFound
		}

		return users.User{}, fmt.Errorf("get user by username: %w", err)
	}

	return u, nil
}

func (r *usersRepo) ListByRole(ctx context.Context, role users.Role) ([]users.User, error) {
	return r.list(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE role = $1
		ORDER BY id
	`, string(role))
}

func (r *usersRepo) List(ctx context.Context) ([]users.User, error) {
	return r.list(ctx, `
		SELECT `+userColumns+`
		FROM users
		ORDER BY id
	`)
}

func (r *usersRepo) list(ctx context.Context, query string, args ...any) ([]users.User, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []users.User

	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}

		out = append(out, u)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return out, nil
}
