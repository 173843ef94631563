package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastprodman/surveyledger/internal/config"
	"github.com/fastprodman/surveyledger/internal/repos/users"
)

func TestDeposit_AndWallet(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, config.RateLimitConfig{})
	token := env.register(t, "acme", users.RoleBusiness)

	status, _, raw := env.do(t, call{
		method: http.MethodPost,
		path:   "/api/wallet/deposit",
		token:  token,
		body:   `{"amount": 100.10}`,
	})
	require.Equal(t, http.StatusOK, status, string(raw))
	assert.Equal(t, "100.10", decode[depositResponse](t, raw).Balance)

	status, _, raw = env.do(t, call{
		method: http.MethodPost,
		path:   "/api/wallet/deposit",
		token:  token,
		body:   map[string]string{"amount": "0.20"},
	})
	require.Equal(t, http.StatusOK, status, string(raw))
	assert.Equal(t, "100.30", decode[depositResponse](t, raw).Balance)

	status, _, raw = env.do(t, call{method: http.MethodGet, path: "/api/wallet", token: token})
	require.Equal(t, http.StatusOK, status)

	w := decode[walletResponse](t, raw)
	assert.Equal(t, "100.30", w.Balance)
	require.Len(t, w.Transactions, 2)
	assert.Equal(t, "0.20", w.Transactions[0].Amount, "newest first")
	assert.Equal(t, "credit", w.Transactions[0].Type)
	assert.Equal(t, "Wallet deposit", w.Transactions[0].Description)
}

func TestDeposit_Errors(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, config.RateLimitConfig{})
	biz := env.register(t, "acme", users.RoleBusiness)
	part := env.register(t, "pat", users.RoleParticipant)

	tests := []struct {
		name   string
		token  string
		body   any
		status int
		code   string
	}{
		{"participant_forbidden", part, map[string]string{"amount": "5.00"}, http.StatusForbidden, "forbidden"},
		{"zero_amount", biz, map[string]string{"amount": "0"}, http.StatusBadRequest, "invalid_amount"},
		{"negative_amount", biz, `{"amount": -3}`, http.StatusBadRequest, "invalid_amount"},
		{"three_decimals", biz, map[string]string{"amount": "1.001"}, http.StatusBadRequest, "invalid_amount"},
		{"not_a_number", biz, map[string]string{"amount": "ten"}, http.StatusBadRequest, "invalid_amount"},
		{"missing_amount", biz, `{}`, http.StatusBadRequest, "invalid_amount"},
		{"bad_json", biz, `{"amount": true}`, http.StatusBadRequest, "validation_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _, raw := env.do(t, call{method: http.MethodPost, path: "/api/wallet/deposit", token: tt.token, body: tt.body})
			require.Equal(t, tt.status, status, string(raw))
			assert.Equal(t, tt.code, decode[errorResponse](t, raw).Code)
		})
	}
}

func TestDeposit_IdempotencyKey(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, config.RateLimitConfig{})
	token := env.register(t, "acme", users.RoleBusiness)

	c := call{
		method: http.MethodPost,
		path:   "/api/wallet/deposit",
		token:  token,
		body:   map[string]string{"amount": "25.00"},
		header: map[string]string{"Idempotency-Key": "order-77"},
	}

	status, _, _ := env.do(t, c)
	require.Equal(t, http.StatusOK, status)

	status, _, raw := env.do(t, c)
	require.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "duplicate_transaction", decode[errorResponse](t, raw).Code)

	_, _, raw = env.do(t, call{method: http.MethodGet, path: "/api/wallet", token: token})
	w := decode[walletResponse](t, raw)
	assert.Equal(t, "25.00", w.Balance)
	require.Len(t, w.Transactions, 1)
	assert.Equal(t, "order-77", w.Transactions[0].Reference)
}
