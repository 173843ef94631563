package identity_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/fastprodman/surveyledger/internal/repos/uow/memory"
	"github.com/fastprodman/surveyledger/internal/repos/users"
	"github.com/fastprodman/surveyledger/internal/services/identity"
)

const secret = "0123456789abcdef0123456789abcdef"

func newService(t *testing.T, opts ...identity.Option) *identity.Service {
	t.Helper()

	opts = append([]identity.Option{identity.WithBcryptCost(bcrypt.MinCost)}, opts...)

	svc, err := identity.New(memory.New(), identity.Config{JWTSecret: secret, TokenTTL: time.Hour}, opts...)
	require.NoError(t, err)

	return svc
}

func TestNew_RejectsWeakConfig(t *testing.T) {
	t.Parallel()

	_, err := identity.New(memory.New(), identity.Config{JWTSecret: "short", TokenTTL: time.Hour})
	require.Error(t, err)

	_, err = identity.New(memory.New(), identity.Config{JWTSecret: secret})
	require.Error(t, err)
}

func TestRegisterAndAuthenticate(t *testing.T) {
	t.Parallel()

	svc := newService(t)

	u, err := svc.Register(t.Context(), "  acme ", "hunter22", users.RoleBusiness)
	require.NoError(t, err)
	assert.Equal(t, "acme", u.Username)
	assert.Equal(t, int64(0), u.BalanceMinor)
	assert.NotEqual(t, "hunter22", u.PasswordHash)

	got, err := svc.Authenticate(t.Context(), "acme", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = svc.Authenticate(t.Context(), "acme", "wrong-password")
	require.ErrorIs(t, err, identity.ErrInvalidCredentials)

	_, err = svc.Authenticate(t.Context(), "nobody", "hunter22")
	require.ErrorIs(t, err, identity.ErrInvalidCredentials)

	_, err = svc.Register(t.Context(), "acme", "another1", users.RoleParticipant)
	require.ErrorIs(t, err, identity.ErrUsernameTaken)
}

func TestRegister_Validation(t *testing.T) {
	t.Parallel()

	svc := newService(t)

	tests := []struct {
		name     string
		username string
		password string
		role     users.Role
	}{
		{"short_username", "ab", "hunter22", users.RoleBusiness},
		{"short_password", "acme", "12345", users.RoleBusiness},
		{"long_password", "acme", string(make([]byte, 73)), users.RoleBusiness},
		{"unknown_role", "acme", "hunter22", "owner"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(t.Context(), tt.username, tt.password, tt.role)
			require.ErrorIs(t, err, identity.ErrInvalidInput)
		})
	}
}

func TestRegister_SingleAdmin(t *testing.T) {
	t.Parallel()

	svc := newService(t)

	_, err := svc.Register(t.Context(), "root", "hunter22", users.RoleAdmin)
	require.NoError(t, err)

	_, err = svc.Register(t.Context(), "root2", "hunter22", users.RoleAdmin)
	require.ErrorIs(t, err, identity.ErrAdminExists)
}

func TestTokenRoundTrip(t *testing.T) {
	t.Parallel()

	svc := newService(t)

	u, err := svc.Register(t.Context(), "pat", "hunter22", users.RoleParticipant)
	require.NoError(t, err)

	token, expires, err := svc.IssueToken(u)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, time.Minute)

	p, err := svc.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, identity.Principal{UserID: u.ID, Role: users.RoleParticipant}, p)
}

func TestParseToken_Rejects(t *testing.T) {
	t.Parallel()

	past := time.Now().Add(-2 * time.Hour)
	expiredSvc := newService(t, identity.WithClock(func() time.Time { return past }))
	svc := newService(t)

	u := users.User{ID: 7, Username: "pat", Role: users.RoleParticipant}

	expired, _, err := expiredSvc.IssueToken(u)
	require.NoError(t, err)

	foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, identity.Claims{
		UserID: 7,
		Role:   "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "surveyledger",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("another-secret-another-secret"))
	require.NoError(t, err)

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, identity.Claims{
		UserID: 7,
		Role:   "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "surveyledger",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, raw := range map[string]string{
		"garbage":      "not-a-token",
		"expired":      expired,
		"wrong_secret": foreign,
		"alg_none":     noneAlg,
	} {
		_, err := svc.ParseToken(raw)
		require.ErrorIs(t, err, identity.ErrInvalidToken, name)
	}
}
