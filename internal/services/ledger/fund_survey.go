package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fastprodman/surveyledger/internal/repos/surveys"
	"github.com/fastprodman/surveyledger/internal/repos/transactions"
	"github.com/fastprodman/surveyledger/internal/repos/uow"
	"github.com/fastprodman/surveyledger/internal/repos/users"
	"github.com/fastprodman/surveyledger/pkg/money"
)

// FundSurvey creates a pending survey paid for from the creator's wallet.
// The creator is debited reward * quota; the commission share goes to the
// admin account and the rest stays on the survey as escrow for participant
// rewards. The debit, the credit, both transaction rows and the survey are
// committed together.
func (s *Service) FundSurvey(ctx context.Context, creatorID uint64, draft SurveyDraft) (survey surveys.Survey, err error) {
	start := time.Now()
	defer func() { s.observe(opFundSurvey, start, err) }()

	err = draft.validate()
	if err != nil {
		return surveys.Survey{}, err
	}

	b, err := s.budget(draft)
	if err != nil {
		return surveys.Survey{}, err
	}

	if s.adminID == 0 {
		return surveys.Survey{}, ErrNoAdminAccount
	}
	if creatorID == s.adminID {
		return surveys.Survey{}, fmt.Errorf("%w: the admin account cannot fund surveys", ErrForbidden)
	}

	title := strings.TrimSpace(draft.Title)
	reference := uuid.NewString()

	err = uow.Run(ctx, s.store, uow.ReadWrite, func(tx uow.Tx) error {
		var creatorBalance int64

		for _, id := range lockOrder(creatorID, s.adminID) {
			bal, err := tx.Users().LockAndGetBalance(ctx, id)
			if err != nil {
				if id == s.adminID && errors.Is(err, users.ErrUserNotFound) {
					return ErrNoAdminAccount
				}

				return fmt.Errorf("lock account %d: %w", id, err)
			}

			if id == creatorID {
				creatorBalance = bal
			}
		}

		admin, err := tx.Users().Get(ctx, s.adminID)
		if err != nil {
			return fmt.Errorf("get admin: %w", err)
		}
		if admin.Role != users.RoleAdmin {
			return fmt.Errorf("%w: account %d is not an admin", ErrNoAdminAccount, s.adminID)
		}

		if creatorBalance < b.totalMinor {
			return fmt.Errorf("budget %s exceeds balance %s: %w",
				money.Format(b.totalMinor), money.Format(creatorBalance), ErrInsufficientFunds)
		}

		survey, err = tx.Surveys().Insert(ctx, surveys.Survey{
			CreatorID:        creatorID,
			Title:            title,
			Description:      strings.TrimSpace(draft.Description),
			Questions:        draft.Questions,
			RewardMinor:      b.rewardMinor,
			ParticipantQuota: draft.ParticipantQuota,
			TimeLimitMinutes: draft.TimeLimitMinutes,
			Status:           surveys.StatusPending,
			BudgetMinor:      b.totalMinor,
			CommissionMinor:  b.commissionMinor,
			EscrowMinor:      b.escrowMinor,
		})
		if err != nil {
			return fmt.Errorf("insert survey: %w", err)
		}
		surveyID := survey.ID

		_, err = tx.Users().DecreaseBalance(ctx, creatorID, b.totalMinor)
		if err != nil {
			return fmt.Errorf("debit creator: %w", err)
		}

		_, err = tx.Transactions().Insert(ctx, transactions.Record{
			UserID:      creatorID,
			AmountMinor: b.totalMinor,
			Kind:        transactions.KindDebit,
			Description: fmt.Sprintf("Survey budget allocation for %q", title),
			Reference:   reference,
			SurveyID:    &surveyID,
		})
		if err != nil {
			return fmt.Errorf("insert debit: %w", err)
		}

		// a zero rate leaves nothing to credit; rows must carry a positive amount
		if b.commissionMinor == 0 {
			return nil
		}

		_, err = tx.Users().IncreaseBalance(ctx, s.adminID, b.commissionMinor)
		if err != nil {
			return fmt.Errorf("credit admin: %w", err)
		}

		_, err = tx.Transactions().Insert(ctx, transactions.Record{
			UserID:      s.adminID,
			AmountMinor: b.commissionMinor,
			Kind:        transactions.KindCredit,
			Description: fmt.Sprintf("Commission for survey %q", title),
			Reference:   reference,
			SurveyID:    &surveyID,
		})
		if err != nil {
			return fmt.Errorf("insert commission: %w", err)
		}

		return nil
	})
	if err != nil {
		return surveys.Survey{}, fmt.Errorf("fund survey: %w", err)
	}

	s.metrics.AddMoved("budget", b.totalMinor)
	s.metrics.AddMoved("commission", b.commissionMinor)
	s.metrics.AddMoved("escrow", b.escrowMinor)
	s.log.InfoContext(ctx, "survey funded",
		"account_id", creatorID,
		"survey_id", survey.ID,
		"amount", money.Format(b.totalMinor),
		"commission", money.Format(b.commissionMinor),
		"escrow", money.Format(b.escrowMinor),
	)

	return survey, nil
}
