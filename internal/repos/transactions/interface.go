package transactions

import (
	"context"
	"errors"
	"time"
)

var ErrDuplicateTransaction = errors.New("duplicate transaction")

type Kind string

const (
	KindCredit Kind = "credit"
	KindDebit  Kind = "debit"
)

// Record is an append-only wallet log entry. AmountMinor is always positive;
// Kind carries the sign.
type Record struct {
	ID          uint64
	UserID      uint64
	AmountMinor int64
	Kind        Kind
	Description string
	// Reference is unique per user and lets callers detect replays.
	Reference string
	SurveyID  *uint64
	CreatedAt time.Time
}

// Signed returns the amount with the sign implied by Kind.
func (r Record) Signed() int64 {
	if r.Kind == KindDebit {
		return -r.AmountMinor
	}

	return r.AmountMinor
}

type Transactions interface {
	Insert(ctx context.Context, r Record) (Record, error)
	// ListByUser returns the user's records newest first.
	ListByUser(ctx context.Context, userID uint64) ([]Record, error)
	SignedSumByUser(ctx context.Context, userID uint64) (int64, error)
	ListBySurvey(ctx context.Context, surveyID uint64) ([]Record, error)
}
