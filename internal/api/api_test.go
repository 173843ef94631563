package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/fastprodman/surveyledger/internal/config"
	"github.com/fastprodman/surveyledger/internal/infra/metrics"
	"github.com/fastprodman/surveyledger/internal/repos/uow/memory"
	"github.com/fastprodman/surveyledger/internal/repos/users"
	"github.com/fastprodman/surveyledger/internal/services/identity"
	"github.com/fastprodman/surveyledger/internal/services/ledger"
)

type testEnv struct {
	srv     *httptest.Server
	id      *identity.Service
	metrics *metrics.Metrics
}

func newTestEnv(t *testing.T, rl config.RateLimitConfig) *testEnv {
	t.Helper()

	store := memory.New()

	id, err := identity.New(store, identity.Config{
		JWTSecret: "test-secret-test-secret",
		TokenTTL:  time.Hour,
	}, identity.WithBcryptCost(bcrypt.MinCost))
	require.NoError(t, err)

	_, err = id.Register(t.Context(), "root", "rootpass", users.RoleAdmin)
	require.NoError(t, err)

	adminID, err := ledger.ResolveAdmin(t.Context(), store)
	require.NoError(t, err)

	m := metrics.New()

	l, err := ledger.New(store, ledger.Config{
		CommissionRate: decimal.RequireFromString("0.4"),
		AdminID:        adminID,
	},
		ledger.WithMetrics(m),
		ledger.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	require.NoError(t, err)

	srv := httptest.NewServer(NewRouter(Deps{Ledger: l, Identity: id, Metrics: m, RateLimit: rl}))
	t.Cleanup(srv.Close)

	return &testEnv{srv: srv, id: id, metrics: m}
}

type call struct {
	method string
	path   string
	token  string
	body   any
	header map[string]string
}

func (e *testEnv) do(t *testing.T, c call) (int, http.Header, []byte) {
	t.Helper()

	var body io.Reader
	switch b := c.body.(type) {
	case nil:
	case string:
		body = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(t.Context(), c.method, e.srv.URL+c.path, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, v := range c.header {
		req.Header.Set(k, v)
	}

	resp, err := e.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, resp.Header, raw
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))

	return v
}

func (e *testEnv) register(t *testing.T, username string, role users.Role) string {
	t.Helper()

	status, _, raw := e.do(t, call{
		method: http.MethodPost,
		path:   "/api/register",
		body:   registerRequest{Username: username, Password: "secret1", Role: string(role)},
	})
	require.Equal(t, http.StatusCreated, status, string(raw))

	return decode[tokenResponse](t, raw).Token
}

func (e *testEnv) login(t *testing.T, username, password string) string {
	t.Helper()

	status, _, raw := e.do(t, call{
		method: http.MethodPost,
		path:   "/api/login",
		body:   loginRequest{Username: username, Password: password},
	})
	require.Equal(t, http.StatusOK, status, string(raw))

	return decode[tokenResponse](t, raw).Token
}

func surveyBody(reward any, quota int64) map[string]any {
	return map[string]any{
		"title":       "Coffee habits",
		"description": "How do you take your coffee?",
		"questions": []map[string]any{
			{"type": "mcq", "text": "Milk?", "options": []string{"yes", "no"}, "required": true},
			{"type": "rating", "text": "Rate your barista", "minRating": 1, "maxRating": 5},
		},
		"rewardPerResponse": reward,
		"participantQuota":  quota,
		"timeLimit":         15,
	}
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, config.RateLimitConfig{})

	status, _, raw := env.do(t, call{method: http.MethodGet, path: "/healthz"})
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok"}`, string(raw))
}
