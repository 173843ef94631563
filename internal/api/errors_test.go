package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastprodman/surveyledger/internal/services/identity"
	"github.com/fastprodman/surveyledger/internal/services/ledger"
)

func TestWriteServiceError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		status     int
		code       string
		retryAfter string
		hidden     bool
	}{
		{"validation", &ledger.ValidationError{Field: "title", Reason: "too short"}, http.StatusBadRequest, "validation_error", "", false},
		{"invalid_amount", fmt.Errorf("deposit: %w", ledger.ErrInvalidAmount), http.StatusBadRequest, "invalid_amount", "", false},
		{"identity_input", identity.ErrInvalidInput, http.StatusBadRequest, "validation_error", "", false},
		{"credentials", identity.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials", "", false},
		{"forbidden", ledger.ErrForbidden, http.StatusForbidden, "forbidden", "", false},
		{"account_missing", ledger.ErrAccountNotFound, http.StatusNotFound, "account_not_found", "", false},
		{"survey_missing", ledger.ErrSurveyNotFound, http.StatusNotFound, "survey_not_found", "", false},
		{"insufficient", ledger.ErrInsufficientFunds, http.StatusConflict, "insufficient_funds", "", false},
		{"balance_overflow", fmt.Errorf("credit admin: %w", ledger.ErrBalanceOverflow), http.StatusConflict, "balance_overflow", "", false},
		{"duplicate", ledger.ErrDuplicateTransaction, http.StatusConflict, "duplicate_transaction", "", false},
		{"transition", ledger.ErrInvalidTransition, http.StatusConflict, "invalid_transition", "", false},
		{"username_taken", identity.ErrUsernameTaken, http.StatusConflict, "username_taken", "", false},
		{"admin_exists", identity.ErrAdminExists, http.StatusConflict, "admin_exists", "", false},
		{"conflict", fmt.Errorf("fund survey: %w", ledger.ErrConcurrencyConflict), http.StatusServiceUnavailable, "concurrency_conflict", "1", true},
		{"unavailable", ledger.ErrStoreUnavailable, http.StatusServiceUnavailable, "store_unavailable", "", true},
		{"no_admin", ledger.ErrNoAdminAccount, http.StatusInternalServerError, "no_admin_account", "", true},
		{"unknown", errors.New("pq: relation users does not exist"), http.StatusInternalServerError, "internal", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)

			writeServiceError(rec, req, tt.err)

			require.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.retryAfter, rec.Header().Get("Retry-After"))

			var body errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Code)

			if tt.hidden {
				assert.Equal(t, http.StatusText(tt.status), body.Error)
			} else {
				assert.Equal(t, tt.err.Error(), body.Error)
			}
		})
	}
}

func TestAmountField(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    amountField
		wantErr bool
	}{
		{`"5.00"`, "5.00", false},
		{`5.00`, "5.00", false},
		{`0.1`, "0.1", false},
		{`1e2`, "1e2", false},
		{` "12" `, "12", false},
		{`true`, "", true},
		{`[1]`, "", true},
	}

	for _, tt := range tests {
		var got amountField
		err := json.Unmarshal([]byte(tt.in), &got)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}

		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}
