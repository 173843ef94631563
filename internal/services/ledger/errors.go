package ledger

import (
	"errors"
	"fmt"

	"github.com/fastprodman/surveyledger/internal/repos/surveys"
	"github.com/fastprodman/surveyledger/internal/repos/transactions"
	"github.com/fastprodman/surveyledger/internal/repos/uow"
	"github.com/fastprodman/surveyledger/internal/repos/users"
	"github.com/fastprodman/surveyledger/pkg/money"
)

var (
	ErrValidation            = errors.New("validation failed")
	ErrInvalidAmount         = money.ErrInvalidAmount
	ErrForbidden             = errors.New("forbidden")
	ErrInvalidTransition     = errors.New("invalid survey status transition")
	ErrNoAdminAccount        = errors.New("no admin account")
	ErrMultipleAdminAccounts = errors.New("more than one admin account")

	ErrAccountNotFound      = users.ErrUserNotFound
	ErrInsufficientFunds    = users.ErrInsufficientFunds
	ErrBalanceOverflow      = users.ErrBalanceOverflow
	ErrSurveyNotFound       = surveys.ErrSurveyNotFound
	ErrDuplicateTransaction = transactions.ErrDuplicateTransaction
	ErrConcurrencyConflict  = uow.ErrConcurrencyConflict
	ErrStoreUnavailable     = uow.ErrStoreUnavailable
)

// ValidationError rejects malformed input before the store is touched.
// It matches ErrValidation and, through Unwrap, its cause if any.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// ErrorCode maps an error to a short stable code used in API responses and
// metric labels. nil maps to "ok".
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrAccountNotFound):
		return "account_not_found"
	case errors.Is(err, ErrSurveyNotFound):
		return "survey_not_found"
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ErrBalanceOverflow):
		return "balance_overflow"
	case errors.Is(err, ErrDuplicateTransaction):
		return "duplicate_transaction"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrNoAdminAccount):
		return "no_admin_account"
	case errors.Is(err, ErrMultipleAdminAccounts):
		return "multiple_admin_accounts"
	case errors.Is(err, ErrConcurrencyConflict):
		return "concurrency_conflict"
	case errors.Is(err, ErrStoreUnavailable):
		return "store_unavailable"
	default:
		return "internal"
	}
}
