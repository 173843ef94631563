package transactions

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fastprodman/surveyledger/internal/infra/pgutils"
	"github.com/fastprodman/surveyledger/internal/repos/transactions"
)

var _ transactions.Transactions = (*transactionsRepo)(nil)

type transactionsRepo struct{ q pgutils.Querier }

func New(q pgutils.Querier) *transactionsRepo {
	return &transactionsRepo{q: q}
}

const recordColumns = `id, user_id, amount, kind, description, reference, survey_id, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (transactions.Record, error) {
	var (
		rec      transactions.Record
		kind     string
		surveyID sql.NullInt64
	)

	err := row.Scan(&rec.ID, &rec.UserID, &rec.AmountMinor, &kind, &rec.Description,
		&rec.Reference, &surveyID, &rec.CreatedAt)
	if err != nil {
		return transactions.Record{}, err
	}

	rec.Kind = transactions.Kind(kind)
	if surveyID.Valid {
		id := uint64(surveyID.Int64)
		rec.SurveyID = &id
	}

	return rec, nil
}

func (r *transactionsRepo) Insert(ctx context.Context, rec transactions.Record) (transactions.Record, error) {
	var surveyID sql.NullInt64
	if rec.SurveyID != nil {
		surveyID = sql.NullInt64{Int64: int64(*rec.SurveyID), Valid: true}
	}

	out, err := scanRecord(r.q.QueryRowContext(ctx, `
		INSERT INTO transactions (user_id, amount, kind, description, reference, survey_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+recordColumns,
		rec.UserID, rec.AmountMinor, string(rec.Kind), rec.Description, rec.Reference, surveyID,
	))
	if err != nil {
		if pgutils.IsUniqueViolation(err) {
			return transactions.Record{}, transactions.ErrDuplicateTransaction
		}

		return transactions.Record{}, fmt.Errorf("insert transaction: %w", err)
	}

	return out, nil
}

func (r *transactionsRepo) ListByUser(ctx context.Context, userID uint64) ([]transactions.Record, error) {
	return r.list(ctx, `
		SELECT `+recordColumns+`
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`, userID)
}

func (r *transactionsRepo) ListBySurvey(ctx context.Context, surveyID uint64) ([]transactions.Record, error) {
	return r.list(ctx, `
		SELECT `+recordColumns+`
		FROM transactions
		WHERE survey_id = $1
		ORDER BY id
	`, surveyID)
}

func (r *transactionsRepo) SignedSumByUser(ctx context.Context, userID uint64) (int64, error) {
	var sum int64

	err := r.q.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(CASE WHEN kind = 'credit' THEN amount ELSE -amount END), 0)::BIGINT
		FROM transactions
		WHERE user_id = $1
	`, userID).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum transactions: %w", err)
	}

	return sum, nil
}

func (r *transactionsRepo) list(ctx context.Context, query string, args ...any) ([]transactions.Record, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []transactions.Record

	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}

		out = append(out, rec)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}

	return out, nil
}
