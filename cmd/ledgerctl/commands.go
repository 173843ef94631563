package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/fastprodman/surveyledger/internal/repos/uow"
	"github.com/fastprodman/surveyledger/internal/repos/users"
	"github.com/fastprodman/surveyledger/internal/services/identity"
	"github.com/fastprodman/surveyledger/internal/services/ledger"
	"github.com/fastprodman/surveyledger/pkg/money"
)

// adminPasswordEnv lets scripts pass the admin password without a flag.
const adminPasswordEnv = "LEDGERCTL_ADMIN_PASSWORD"

var errAuditFailed = errors.New("audit found violations")

type app struct {
	store          uow.Store
	commissionRate decimal.Decimal
	jwtSecret      string
	out            io.Writer
	identityOpts   []identity.Option
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "Operate the survey ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.SetOut(a.out)
	root.AddCommand(
		newCreateAdminCmd(a),
		newWalletCmd(a),
		newAuditCmd(a),
	)

	return root
}

// --- create-admin ---

func newCreateAdminCmd(a *app) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create the single admin account that receives commissions",
		Long: `Create the admin account. Survey commissions are credited to it, and the
API refuses to start until it exists. Only one admin account may exist.
The password is read from --password or ` + adminPasswordEnv + `.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				password = os.Getenv(adminPasswordEnv)
			}
			if password == "" {
				return fmt.Errorf("password required: use --password or %s", adminPasswordEnv)
			}

			id, err := identity.New(a.store, identity.Config{
				JWTSecret: a.jwtSecret,
				TokenTTL:  time.Minute,
			}, a.identityOpts...)
			if err != nil {
				return fmt.Errorf("init identity: %w", err)
			}

			u, err := id.Register(cmd.Context(), username, password, users.RoleAdmin)
			if err != nil {
				return fmt.Errorf("create admin: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "admin account created: id=%d username=%s\n", u.ID, u.Username)

			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "admin", "Admin username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Admin password")

	return cmd
}

// --- wallet ---

func newWalletCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "wallet USERNAME",
		Short: "Print an account's balance and transaction history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			u, err := lookupUser(ctx, a.store, args[0])
			if err != nil {
				return err
			}

			l, err := a.ledger()
			if err != nil {
				return err
			}

			view, err := l.GetWalletView(ctx, u.ID)
			if err != nil {
				return fmt.Errorf("wallet: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s, id=%d) balance %s\n", u.Username, u.Role, u.ID, money.Format(view.BalanceMinor))

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTYPE\tAMOUNT\tREFERENCE\tCREATED\tDESCRIPTION")
			for _, r := range view.Transactions {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
					r.ID, r.Kind, money.Format(r.AmountMinor), r.Reference,
					r.CreatedAt.UTC().Format(time.RFC3339), r.Description)
			}

			return tw.Flush()
		},
	}
}

func lookupUser(ctx context.Context, store uow.Store, username string) (users.User, error) {
	var u users.User

	err := uow.Run(ctx, store, uow.ReadOnly, func(tx uow.Tx) error {
		var err error
		u, err = tx.Users().GetByUsername(ctx, username)
		return err
	})
	if err != nil {
		return users.User{}, fmt.Errorf("lookup %q: %w", username, err)
	}

	return u, nil
}

// --- audit ---

func newAuditCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Check balances and survey funding against the transaction log",
		Long: `Reads one consistent snapshot and checks that every balance equals the
signed sum of its transactions and is not negative, and that every survey
budget is split into commission and escrow and matched by its funding rows.
Exits non-zero when a violation is found.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			l, err := a.ledger()
			if err != nil {
				return err
			}

			report, err := l.Audit(cmd.Context())
			if err != nil {
				return fmt.Errorf("audit: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "checked %d accounts, %d surveys\n", report.Accounts, report.Surveys)

			if report.OK() {
				fmt.Fprintln(out, "OK")
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "KIND\tACCOUNT\tSURVEY\tDETAIL")
			for _, v := range report.Violations {
				fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", v.Kind, v.AccountID, v.SurveyID, v.Detail)
			}
			err = tw.Flush()
			if err != nil {
				return err
			}

			return fmt.Errorf("%w: %d", errAuditFailed, len(report.Violations))
		},
	}
}

// ledger builds an engine for read paths; no admin id is needed for them.
func (a *app) ledger() (*ledger.Service, error) {
	l, err := ledger.New(a.store, ledger.Config{CommissionRate: a.commissionRate})
	if err != nil {
		return nil, fmt.Errorf("init ledger: %w", err)
	}

	return l, nil
}
