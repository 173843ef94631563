package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/surveyledger/internal/infra/pgutils"
	"github.com/fastprodman/surveyledger/internal/repos/users"
)

func (r *usersRepo) IncreaseBalance(ctx context.Context, userID uint64, amount int64) (int64, error) {
	var balance int64

	err := r.q.QueryRowContext(ctx, `
		UPDATE users
		SET balance = balance + $2
		WHERE id = $1
		RETURNING balance
	`, userID, amount).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, users.ErrUserNotFound
		}
		if pgutils.SQLState(err) == pgutils.CodeNumericOutOfRange {
			return 0, users.ErrBalanceOverflow
		}

		return 0, fmt.Errorf("increase balance: %w", err)
	}

	return balance, nil
}
