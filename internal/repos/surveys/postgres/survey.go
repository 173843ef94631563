package surveys

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fastprodman/surveyledger/internal/repos/surveys"
)

func (r *surveysRepo) Insert(ctx context.Context, s surveys.Survey) (surveys.Survey, error) {
	questions, err := json.Marshal(s.Questions)
	if err != nil {
		return surveys.Survey{}, fmt.Errorf("encode questions: %w", err)
	}

	created, err := scanSurvey(r.q.QueryRowContext(ctx, `
		INSERT INTO surveys AS s (creator_id, title, description, questions,
			reward_per_response, participant_quota, time_limit, status,
			budget, commission, escrow)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+surveyColumns,
		s.CreatorID, s.Title, s.Description, questions,
		s.RewardMinor, s.ParticipantQuota, s.TimeLimitMinutes, string(s.Status),
		s.BudgetMinor, s.CommissionMinor, s.EscrowMinor,
	))
	if err != nil {
		return surveys.Survey{}, fmt.Errorf("insert survey: %w", err)
	}

	return created, nil
}

func (r *surveysRepo) Get(ctx context.Context, surveyID uint64) (surveys.Survey, error) {
	return r.get(ctx, `
		SELECT `+surveyColumns+`
		FROM surveys s
		WHERE s.id = $1
	`, surveyID)
}

func (r *surveysRepo) LockAndGet(ctx context.Context, surveyID uint64) (surveys.Survey, error) {
	return r.get(ctx, `
		SELECT `+surveyColumns+`
		FROM surveys s
		WHERE s.id = $1
		FOR UPDATE
	`, surveyID)
}

func (r *surveysRepo) get(ctx context.Context, query string, surveyID uint64) (surveys.Survey, error) {
	s, err := scanSurvey(r.q.QueryRowContext(ctx, query, surveyID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return surveys.Survey{}, surveys.ErrSurveyNotFound
		}

		return surveys.Survey{}, fmt.Errorf("get survey: %w", err)
	}

	return s, nil
}

func (r *surveysRepo) UpdateStatus(ctx context.Context, surveyID uint64, status surveys.Status) (surveys.Survey, error) {
	s, err := scanSurvey(r.q.QueryRowContext(ctx, `
		UPDATE surveys AS s
		SET status = $2, updated_at = now()
		WHERE s.id = $1
		RETURNING `+surveyColumns,
		surveyID, string(status),
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return surveys.Survey{}, surveys.ErrSurveyNotFound
		}

		return surveys.Survey{}, fmt.Errorf("update survey status: %w", err)
	}

	return s, nil
}

func (r *surveysRepo) List(ctx context.Context, f surveys.Filter) ([]surveys.Listing, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT `+surveyColumns+`, u.id, u.username, u.role
		FROM surveys s
		JOIN users u ON u.id = s.creator_id
		WHERE ($1::BIGINT = 0 OR s.creator_id = $1::BIGINT)
		  AND ($2::TEXT = '' OR s.status = $2::TEXT)
		ORDER BY s.created_at DESC, s.id DESC
	`, f.CreatorID, string(f.Status))
	if err != nil {
		return nil, fmt.Errorf("list surveys: %w", err)
	}
	defer rows.Close()

	var out []surveys.Listing

	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("scan survey: %w", err)
		}

		out = append(out, l)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate surveys: %w", err)
	}

	return out, nil
}
