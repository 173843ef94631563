package ledger

import (
	"context"
	"fmt"

	"github.com/fastprodman/surveyledger/internal/repos/uow"
	"github.com/fastprodman/surveyledger/internal/repos/users"
)

// ResolveAdmin looks up the single admin account. It is meant to run once at
// startup; the result is passed to New through Config.AdminID.
func ResolveAdmin(ctx context.Context, store uow.Store) (uint64, error) {
	var admins []users.User

	err := uow.Run(ctx, store, uow.ReadOnly, func(tx uow.Tx) error {
		var err error
		admins, err = tx.Users().ListByRole(ctx, users.RoleAdmin)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("resolve admin: %w", err)
	}

	switch len(admins) {
	case 0:
		return 0, ErrNoAdminAccount
	case 1:
		return admins[0].ID, nil
	default:
		return 0, fmt.Errorf("%w: found %d", ErrMultipleAdminAccounts, len(admins))
	}
}
