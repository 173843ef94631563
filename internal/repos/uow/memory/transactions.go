package memory

import (
	"context"
	"errors"
	"slices"

	"github.com/fastprodman/surveyledger/internal/repos/transactions"
	"github.com/fastprodman/surveyledger/internal/repos/users"
)

var errNonPositiveAmount = errors.New("transaction amount must be positive")

type transactionsRepo struct{ tx *memTx }

func (r transactionsRepo) Insert(_ context.Context, rec transactions.Record) (transactions.Record, error) {
	err := r.tx.check("transactions.insert", true)
	if err != nil {
		return transactions.Record{}, err
	}

	st := r.tx.st
	if _, ok := st.users[rec.UserID]; !ok {
		return transactions.Record{}, users.ErrUserNotFound
	}
	if rec.AmountMinor <= 0 {
		return transactions.Record{}, errNonPositiveAmount
	}
	for _, existing := range st.records {
		if existing.UserID == rec.UserID && existing.Reference == rec.Reference {
			return transactions.Record{}, transactions.ErrDuplicateTransaction
		}
	}

	rec.ID = st.nextRecordID
	st.nextRecordID++
	rec.CreatedAt = r.tx.store.now()
	if rec.SurveyID != nil {
		id := *rec.SurveyID
		rec.SurveyID = &id
	}
	st.records = append(st.records, rec)

	return rec, nil
}

func (r transactionsRepo) ListByUser(_ context.Context, userID uint64) ([]transactions.Record, error) {
	err := r.tx.check("transactions.list_by_user", false)
	if err != nil {
		return nil, err
	}

	var out []transactions.Record
	for _, rec := range r.tx.st.records {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}

	// records are appended in id order, so reversing gives newest first
	slices.Reverse(out)

	return out, nil
}

func (r transactionsRepo) SignedSumByUser(_ context.Context, userID uint64) (int64, error) {
	err := r.tx.check("transactions.signed_sum_by_user", false)
	if err != nil {
		return 0, err
	}

	var sum int64
	for _, rec := range r.tx.st.records {
		if rec.UserID == userID {
			sum += rec.Signed()
		}
	}

	return sum, nil
}

func (r transactionsRepo) ListBySurvey(_ context.Context, surveyID uint64) ([]transactions.Record, error) {
	err := r.tx.check("transactions.list_by_survey", false)
	if err != nil {
		return nil, err
	}

	var out []transactions.Record
	for _, rec := range r.tx.st.records {
		if rec.SurveyID != nil && *rec.SurveyID == surveyID {
			out = append(out, rec)
		}
	}

	return out, nil
}
