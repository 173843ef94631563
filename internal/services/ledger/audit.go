package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/fastprodman/surveyledger/internal/repos/surveys"
	"github.com/fastprodman/surveyledger/internal/repos/transactions"
	"github.com/fastprodman/surveyledger/internal/repos/uow"
	"github.com/fastprodman/surveyledger/pkg/money"
)

type ViolationKind string

const (
	ViolationBalanceMismatch ViolationKind = "balance_mismatch"
	ViolationNegativeBalance ViolationKind = "negative_balance"
	ViolationBudgetSplit     ViolationKind = "budget_split"
	ViolationBudgetChanged   ViolationKind = "budget_changed"
	ViolationFundingRows     ViolationKind = "funding_rows"
)

type Violation struct {
	Kind      ViolationKind
	AccountID uint64
	SurveyID  uint64
	Detail    string
}

type AuditReport struct {
	Accounts   int
	Surveys    int
	Violations []Violation
}

func (r AuditReport) OK() bool { return len(r.Violations) == 0 }

// Audit checks the whole ledger against one snapshot:
//   - every balance equals the signed sum of its transactions and is >= 0
//   - every survey's budget equals reward * quota and commission + escrow
//   - every survey's funding rows debit the budget and credit the commission
func (s *Service) Audit(ctx context.Context) (report AuditReport, err error) {
	start := time.Now()
	defer func() { s.observe(opAudit, start, err) }()

	err = uow.Run(ctx, s.store, uow.ReadOnly, func(tx uow.Tx) error {
		accounts, err := tx.Users().List(ctx)
		if err != nil {
			return fmt.Errorf("list accounts: %w", err)
		}

		report = AuditReport{Accounts: len(accounts)}

		for _, a := range accounts {
			sum, err := tx.Transactions().SignedSumByUser(ctx, a.ID)
			if err != nil {
				return fmt.Errorf("sum account %d: %w", a.ID, err)
			}

			if sum != a.BalanceMinor {
				report.Violations = append(report.Violations, Violation{
					Kind:      ViolationBalanceMismatch,
					AccountID: a.ID,
					Detail: fmt.Sprintf("balance %s, transactions sum to %s",
						money.Format(a.BalanceMinor), money.Format(sum)),
				})
			}
			if a.BalanceMinor < 0 {
				report.Violations = append(report.Violations, Violation{
					Kind:      ViolationNegativeBalance,
					AccountID: a.ID,
					Detail:    fmt.Sprintf("balance %s", money.Format(a.BalanceMinor)),
				})
			}
		}

		listings, err := tx.Surveys().List(ctx, surveys.Filter{})
		if err != nil {
			return fmt.Errorf("list surveys: %w", err)
		}

		report.Surveys = len(listings)

		for _, l := range listings {
			sv := l.Survey

			if sv.BudgetMinor != sv.CommissionMinor+sv.EscrowMinor {
				report.Violations = append(report.Violations, Violation{
					Kind:     ViolationBudgetSplit,
					SurveyID: sv.ID,
					Detail: fmt.Sprintf("budget %s != commission %s + escrow %s",
						money.Format(sv.BudgetMinor), money.Format(sv.CommissionMinor), money.Format(sv.EscrowMinor)),
				})
			}

			committed, err := money.Mul(sv.RewardMinor, sv.ParticipantQuota)
			if err != nil || committed != sv.BudgetMinor {
				report.Violations = append(report.Violations, Violation{
					Kind:     ViolationBudgetChanged,
					SurveyID: sv.ID,
					Detail: fmt.Sprintf("budget %s, reward %s x quota %d",
						money.Format(sv.BudgetMinor), money.Format(sv.RewardMinor), sv.ParticipantQuota),
				})
			}

			recs, err := tx.Transactions().ListBySurvey(ctx, sv.ID)
			if err != nil {
				return fmt.Errorf("list funding of survey %d: %w", sv.ID, err)
			}

			var debited, credited int64
			for _, r := range recs {
				switch {
				case r.Kind == transactions.KindDebit && r.UserID == sv.CreatorID:
					debited += r.AmountMinor
				case r.Kind == transactions.KindCredit && r.UserID != sv.CreatorID:
					credited += r.AmountMinor
				}
			}

			if debited != sv.BudgetMinor || credited != sv.CommissionMinor {
				report.Violations = append(report.Violations, Violation{
					Kind:     ViolationFundingRows,
					SurveyID: sv.ID,
					Detail: fmt.Sprintf("debited %s (want %s), commission credited %s (want %s)",
						money.Format(debited), money.Format(sv.BudgetMinor),
						money.Format(credited), money.Format(sv.CommissionMinor)),
				})
			}
		}

		return nil
	})
	if err != nil {
		return AuditReport{}, fmt.Errorf("audit: %w", err)
	}

	if !report.OK() {
		s.log.WarnContext(ctx, "ledger audit found violations", "count", len(report.Violations))
	}

	return report, nil
}
