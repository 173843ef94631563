package ledger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastprodman/surveyledger/internal/repos/surveys"
	"github.com/fastprodman/surveyledger/internal/repos/users"
	"github.com/fastprodman/surveyledger/internal/services/ledger"
)

func fundedSurvey(t *testing.T, f *fixture) surveys.Survey {
	t.Helper()

	f.deposit(t, f.bizID, "50.00")

	sv, err := f.svc.FundSurvey(t.Context(), f.bizID, draft("Status checks", "1.00", 10))
	require.NoError(t, err)

	return sv
}

func TestUpdateSurveyStatus_NonAdminForbidden(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "0.4")
	sv := fundedSurvey(t, f)

	for _, role := range []users.Role{users.RoleBusiness, users.RoleParticipant, ""} {
		_, err := f.svc.UpdateSurveyStatus(t.Context(), sv.ID, surveys.StatusApproved, role)
		require.ErrorIs(t, err, ledger.ErrForbidden, "role %q", role)
	}

	list, err := f.svc.ListSurveys(t.Context(), f.bizID, users.RoleBusiness)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, surveys.StatusPending, list[0].Survey.Status)
}

func TestUpdateSurveyStatus_Transitions(t *testing.T) {
	t.Parallel()

	for _, target := range []surveys.Status{surveys.StatusApproved, surveys.StatusRejected} {
		t.Run(string(target), func(t *testing.T) {
			t.Parallel()

			f := newFixture(t, "0.4")
			sv := fundedSurvey(t, f)
			before := f.wallet(t, f.bizID).BalanceMinor

			updated, err := f.svc.UpdateSurveyStatus(t.Context(), sv.ID, target, users.RoleAdmin)
			require.NoError(t, err)
			assert.Equal(t, target, updated.Status)

			// no payout or refund on either transition
			assert.Equal(t, before, f.wallet(t, f.bizID).BalanceMinor)
			assert.Equal(t, int64(400), f.wallet(t, f.adminID).BalanceMinor)

			_, err = f.svc.UpdateSurveyStatus(t.Context(), sv.ID, surveys.StatusApproved, users.RoleAdmin)
			require.ErrorIs(t, err, ledger.ErrInvalidTransition)

			f.requireAuditOK(t)
		})
	}
}

func TestUpdateSurveyStatus_RejectsOtherTargets(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "0.4")
	sv := fundedSurvey(t, f)

	for _, target := range []surveys.Status{surveys.StatusPending, surveys.StatusDraft, surveys.StatusCompleted} {
		_, err := f.svc.UpdateSurveyStatus(t.Context(), sv.ID, target, users.RoleAdmin)
		require.ErrorIs(t, err, ledger.ErrInvalidTransition, "target %s", target)
	}

	_, err := f.svc.UpdateSurveyStatus(t.Context(), sv.ID, "archived", users.RoleAdmin)
	require.ErrorIs(t, err, ledger.ErrValidation)
}

func TestUpdateSurveyStatus_UnknownSurvey(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "0.4")

	_, err := f.svc.UpdateSurveyStatus(t.Context(), 4_242, surveys.StatusApproved, users.RoleAdmin)
	require.ErrorIs(t, err, ledger.ErrSurveyNotFound)
	assert.Equal(t, "survey_not_found", ledger.ErrorCode(err))
}
