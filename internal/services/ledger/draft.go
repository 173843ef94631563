package ledger

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/fastprodman/surveyledger/internal/repos/surveys"
	"github.com/fastprodman/surveyledger/pkg/money"
)

const (
	minTitleLen       = 3
	minDescriptionLen = 10
)

// SurveyDraft is the creator's input for FundSurvey. RewardPerResponse is a
// decimal string with at most two fraction digits.
type SurveyDraft struct {
	Title             string
	Description       string
	Questions         []surveys.Question
	RewardPerResponse string
	ParticipantQuota  int64
	// TimeLimitMinutes of 0 means no limit.
	TimeLimitMinutes int64
}

type budget struct {
	rewardMinor     int64
	totalMinor      int64
	commissionMinor int64
	escrowMinor     int64
}

func (d SurveyDraft) validate() error {
	if utf8.RuneCountInString(strings.TrimSpace(d.Title)) < minTitleLen {
		return invalid("title", fmt.Sprintf("must be at least %d characters", minTitleLen))
	}
	if utf8.RuneCountInString(strings.TrimSpace(d.Description)) < minDescriptionLen {
		return invalid("description", fmt.Sprintf("must be at least %d characters", minDescriptionLen))
	}
	if d.ParticipantQuota < 1 {
		return invalid("participantQuota", "must be at least 1")
	}
	if d.TimeLimitMinutes < 0 {
		return invalid("timeLimit", "must not be negative")
	}
	if len(d.Questions) == 0 {
		return invalid("questions", "at least one question is required")
	}

	for i, q := range d.Questions {
		err := validateQuestion(q)
		if err != nil {
			return invalid(fmt.Sprintf("questions[%d]", i), err.Error())
		}
	}

	return nil
}

func validateQuestion(q surveys.Question) error {
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("text is required")
	}

	switch q.Type {
	case surveys.QuestionMCQ, surveys.QuestionCheckbox, surveys.QuestionRanking:
		n := 0
		for _, o := range q.Options {
			if strings.TrimSpace(o) != "" {
				n++
			}
		}
		if n == 0 {
			return fmt.Errorf("%s question needs at least one option", q.Type)
		}
	case surveys.QuestionRating:
		if q.MinRating != nil && q.MaxRating != nil && *q.MinRating >= *q.MaxRating {
			return fmt.Errorf("minRating must be less than maxRating")
		}
	case surveys.QuestionText:
	default:
		return fmt.Errorf("unknown question type %q", q.Type)
	}

	return nil
}

// budget computes reward * quota and splits it with rate.
func (s *Service) budget(d SurveyDraft) (budget, error) {
	reward, err := money.ParseMinor(d.RewardPerResponse)
	if err != nil {
		return budget{}, &ValidationError{Field: "rewardPerResponse", Reason: err.Error(), Err: err}
	}

	total, err := money.Mul(reward, d.ParticipantQuota)
	if err != nil {
		return budget{}, &ValidationError{Field: "participantQuota", Reason: "total budget out of range", Err: err}
	}

	commission, escrow := money.Split(total, s.rate)

	return budget{
		rewardMinor:     reward,
		totalMinor:      total,
		commissionMinor: commission,
		escrowMinor:     escrow,
	}, nil
}
