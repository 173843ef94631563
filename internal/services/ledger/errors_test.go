package ledger

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{invalid("title", "too short"), "validation_error"},
		{&ValidationError{Field: "amount", Reason: "x", Err: ErrInvalidAmount}, "invalid_amount"},
		{fmt.Errorf("fund survey: %w", ErrInsufficientFunds), "insufficient_funds"},
		{fmt.Errorf("credit admin: %w", ErrBalanceOverflow), "balance_overflow"},
		{fmt.Errorf("%w: x", ErrForbidden), "forbidden"},
		{ErrNoAdminAccount, "no_admin_account"},
		{fmt.Errorf("deposit: %w", ErrConcurrencyConflict), "concurrency_conflict"},
		{ErrStoreUnavailable, "store_unavailable"},
		{ErrDuplicateTransaction, "duplicate_transaction"},
		{errors.New("boom"), "internal"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ErrorCode(tt.err), "%v", tt.err)
	}
}

func TestValidationError(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("wrapped: %w", invalid("title", "must be at least 3 characters"))

	assert.True(t, errors.Is(err, ErrValidation))
	assert.EqualError(t, err, "wrapped: invalid title: must be at least 3 characters")

	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
	assert.Equal(t, "title", verr.Field)
}

func TestLockOrder(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []uint64{2, 9}, lockOrder(9, 2))
	assert.Equal(t, []uint64{4}, lockOrder(4, 4))
}
