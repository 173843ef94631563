package ledger

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/fastprodman/surveyledger/internal/repos/transactions"
	"github.com/fastprodman/surveyledger/internal/repos/uow"
	"github.com/fastprodman/surveyledger/pkg/money"
)

const (
	depositDescription = "Wallet deposit"
	maxReferenceLen    = 128
)

// Deposit credits amount (a decimal string such as "12.50") to the account
// and returns the new balance in cents. reference identifies the request;
// replaying a reference fails with ErrDuplicateTransaction and changes
// nothing. An empty reference gets a random one.
func (s *Service) Deposit(ctx context.Context, accountID uint64, amount, reference string) (balance int64, err error) {
	start := time.Now()
	defer func() { s.observe(opDeposit, start, err) }()

	amountMinor, err := money.ParseMinor(amount)
	if err != nil {
		return 0, &ValidationError{Field: "amount", Reason: err.Error(), Err: err}
	}

	if reference == "" {
		reference = uuid.NewString()
	}
	if len(reference) > maxReferenceLen {
		return 0, invalid("reference", fmt.Sprintf("must be at most %d characters", maxReferenceLen))
	}

	err = uow.Run(ctx, s.store, uow.ReadWrite, func(tx uow.Tx) error {
		current, err := tx.Users().LockAndGetBalance(ctx, accountID)
		if err != nil {
			return fmt.Errorf("lock account: %w", err)
		}

		_, err = money.Add(current, amountMinor)
		if err != nil {
			return &ValidationError{
				Field:  "amount",
				Reason: "balance would exceed " + money.Format(math.MaxInt64),
				Err:    fmt.Errorf("%w: %w", money.ErrInvalidAmount, err),
			}
		}

		balance, err = tx.Users().IncreaseBalance(ctx, accountID, amountMinor)
		if err != nil {
			return fmt.Errorf("increase balance: %w", err)
		}

		_, err = tx.Transactions().Insert(ctx, transactions.Record{
			UserID:      accountID,
			AmountMinor: amountMinor,
			Kind:        transactions.KindCredit,
			Description: depositDescription,
			Reference:   reference,
		})
		if err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}

		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("deposit: %w", err)
	}

	s.metrics.AddMoved("deposit", amountMinor)
	s.log.InfoContext(ctx, "deposit committed",
		"account_id", accountID,
		"amount", money.Format(amountMinor),
		"balance", money.Format(balance),
		"reference", reference,
	)

	return balance, nil
}
