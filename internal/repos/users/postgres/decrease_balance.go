package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/surveyledger/internal/infra/pgutils"
	"github.com/fastprodman/surveyledger/internal/repos/users"
)

const balanceNonNegative = "users_balance_non_negative"

func (r *usersRepo) DecreaseBalance(ctx context.Context, userID uint64, amount int64) (int64, error) {
	var balance int64

	err := r.q.QueryRowContext(ctx, `
		UPDATE users
		SET balance = balance - $2
		WHERE id = $1
		  AND balance >= $2
		RETURNING balance
	`, userID, amount).Scan(&balance)
	if err == nil {
		return balance, nil
	}

	if pgutils.SQLState(err) == pgutils.CodeCheckViolation && pgutils.ConstraintName(err) == balanceNonNegative {
		return 0, users.ErrInsufficientFunds
	}

	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("decrease balance: %w", err)
	}

	// No row updated: either the user is missing or the guard rejected it.
	var exists bool

	err = r.q.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)
	`, userID).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("check exists: %w", err)
	}

	if !exists {
		return 0, users.ErrUserNotFound
	}

	return 0, users.ErrInsufficientFunds
}
