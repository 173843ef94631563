package ledger_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/fastprodman/surveyledger/internal/repos/surveys"
	"github.com/fastprodman/surveyledger/internal/repos/uow"
	"github.com/fastprodman/surveyledger/internal/repos/uow/memory"
	"github.com/fastprodman/surveyledger/internal/repos/users"
	"github.com/fastprodman/surveyledger/internal/services/ledger"
)

type fixture struct {
	store    *memory.Store
	svc      *ledger.Service
	adminID  uint64
	bizID    uint64
	partID   uint64
	otherBiz uint64
}

func newFixture(t *testing.T, rate string) *fixture {
	t.Helper()

	store := memory.New()
	f := &fixture{store: store}

	f.adminID = createUser(t, store, "root", users.RoleAdmin)
	f.bizID = createUser(t, store, "acme", users.RoleBusiness)
	f.partID = createUser(t, store, "pat", users.RoleParticipant)
	f.otherBiz = createUser(t, store, "globex", users.RoleBusiness)

	adminID, err := ledger.ResolveAdmin(t.Context(), store)
	require.NoError(t, err)
	require.Equal(t, f.adminID, adminID)

	f.svc, err = ledger.New(store, ledger.Config{
		CommissionRate: decimal.RequireFromString(rate),
		AdminID:        adminID,
	}, ledger.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)

	return f
}

func createUser(t *testing.T, store uow.Store, name string, role users.Role) uint64 {
	t.Helper()

	var id uint64
	err := uow.Run(t.Context(), store, uow.ReadWrite, func(tx uow.Tx) error {
		u, err := tx.Users().Create(t.Context(), users.User{Username: name, PasswordHash: "x", Role: role})
		id = u.ID
		return err
	})
	require.NoError(t, err)

	return id
}

func draft(title, reward string, quota int64) ledger.SurveyDraft {
	return ledger.SurveyDraft{
		Title:       title,
		Description: "Tell us about your morning routine",
		Questions: []surveys.Question{
			{Type: surveys.QuestionMCQ, Text: "Coffee or tea?", Options: []string{"coffee", "tea"}, Required: true},
			{Type: surveys.QuestionText, Text: "Anything else?"},
		},
		RewardPerResponse: reward,
		ParticipantQuota:  quota,
	}
}

func (f *fixture) deposit(t *testing.T, accountID uint64, amount string) int64 {
	t.Helper()

	bal, err := f.svc.Deposit(t.Context(), accountID, amount, "")
	require.NoError(t, err)

	return bal
}

func (f *fixture) wallet(t *testing.T, accountID uint64) ledger.WalletView {
	t.Helper()

	view, err := f.svc.GetWalletView(t.Context(), accountID)
	require.NoError(t, err)

	return view
}

func signedSum(view ledger.WalletView) int64 {
	var sum int64
	for _, r := range view.Transactions {
		sum += r.Signed()
	}

	return sum
}

// requireAuditOK asserts conservation, non-negative balances and survey
// funding consistency over the whole store.
func (f *fixture) requireAuditOK(t *testing.T) {
	t.Helper()

	report, err := f.svc.Audit(t.Context())
	require.NoError(t, err)
	require.Empty(t, report.Violations)
}

func TestNew_RejectsRateOutOfRange(t *testing.T) {
	t.Parallel()

	for _, rate := range []string{"-0.1", "1.01"} {
		_, err := ledger.New(memory.New(), ledger.Config{CommissionRate: decimal.RequireFromString(rate)})
		require.Error(t, err, rate)
	}
}
