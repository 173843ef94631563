package surveys

import (
	"encoding/json"
	"fmt"

	"github.com/fastprodman/surveyledger/internal/infra/pgutils"
	"github.com/fastprodman/surveyledger/internal/repos/surveys"
)

var _ surveys.Surveys = (*surveysRepo)(nil)

type surveysRepo struct{ q pgutils.Querier }

func New(q pgutils.Querier) *surveysRepo {
	return &surveysRepo{q: q}
}

const surveyColumns = `s.id, s.creator_id, s.title, s.description, s.questions,
	s.reward_per_response, s.participant_quota, s.time_limit, s.completed_responses,
	s.status, s.budget, s.commission, s.escrow, s.created_at, s.updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func surveyDest(s *surveys.Survey, status *string, questions *[]byte) []any {
	return []any{
		&s.ID, &s.CreatorID, &s.Title, &s.Description, questions,
		&s.RewardMinor, &s.ParticipantQuota, &s.TimeLimitMinutes, &s.CompletedResponses,
		status, &s.BudgetMinor, &s.CommissionMinor, &s.EscrowMinor, &s.CreatedAt, &s.UpdatedAt,
	}
}

func finishSurvey(s *surveys.Survey, status string, questions []byte) error {
	s.Status = surveys.Status(status)

	err := json.Unmarshal(questions, &s.Questions)
	if err != nil {
		return fmt.Errorf("decode questions of survey %d: %w", s.ID, err)
	}

	return nil
}

func scanSurvey(row rowScanner) (surveys.Survey, error) {
	var (
		s         surveys.Survey
		status    string
		questions []byte
	)

	err := row.Scan(surveyDest(&s, &status, &questions)...)
	if err != nil {
		return surveys.Survey{}, err
	}

	err = finishSurvey(&s, status, questions)
	if err != nil {
		return surveys.Survey{}, err
	}

	return s, nil
}

func scanListing(row rowScanner) (surveys.Listing, error) {
	var (
		l         surveys.Listing
		status    string
		questions []byte
	)

	dest := surveyDest(&l.Survey, &status, &questions)
	dest = append(dest, &l.Creator.ID, &l.Creator.Username, &l.Creator.Role)

	err := row.Scan(dest...)
	if err != nil {
		return surveys.Listing{}, err
	}

	err = finishSurvey(&l.Survey, status, questions)
	if err != nil {
		return surveys.Listing{}, err
	}

	return l, nil
}
