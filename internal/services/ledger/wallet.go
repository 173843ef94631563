package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/fastprodman/surveyledger/internal/repos/transactions"
	"github.com/fastprodman/surveyledger/internal/repos/uow"
)

type WalletView struct {
	BalanceMinor int64
	// Transactions are newest first.
	Transactions []transactions.Record
}

// GetWalletView reads the balance and the transaction history from the same
// snapshot, so the signed sum of Transactions always equals BalanceMinor.
func (s *Service) GetWalletView(ctx context.Context, accountID uint64) (view WalletView, err error) {
	start := time.Now()
	defer func() { s.observe(opWalletView, start, err) }()

	err = uow.Run(ctx, s.store, uow.ReadOnly, func(tx uow.Tx) error {
		u, err := tx.Users().Get(ctx, accountID)
		if err != nil {
			return fmt.Errorf("get account: %w", err)
		}

		recs, err := tx.Transactions().ListByUser(ctx, accountID)
		if err != nil {
			return fmt.Errorf("list transactions: %w", err)
		}

		view = WalletView{BalanceMinor: u.BalanceMinor, Transactions: recs}

		return nil
	})
	if err != nil {
		return WalletView{}, fmt.Errorf("get wallet: %w", err)
	}

	if view.Transactions == nil {
		view.Transactions = []transactions.Record{}
	}

	return view, nil
}
