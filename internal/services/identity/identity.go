// Package identity registers users, checks passwords and issues the bearer
// tokens the API authenticates with.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/fastprodman/surveyledger/internal/repos/uow"
	"github.com/fastprodman/surveyledger/internal/repos/users"
)

const (
	minUsernameLen = 3
	minPasswordLen = 6
	// bcrypt ignores input past 72 bytes
	maxPasswordLen = 72
	minSecretLen   = 16
	issuer         = "surveyledger"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrUsernameTaken      = users.ErrUsernameTaken
	ErrAdminExists        = users.ErrAdminExists
	ErrUserNotFound       = users.ErrUserNotFound
)

type Config struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// Principal is the authenticated caller carried by a token.
type Principal struct {
	UserID uint64
	Role   users.Role
}

type Claims struct {
	UserID uint64 `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type Service struct {
	store      uow.Store
	secret     []byte
	ttl        time.Duration
	bcryptCost int
	now        func() time.Time
	// dummyHash is compared against when the username is unknown so both
	// paths cost one bcrypt comparison.
	dummyHash []byte
}

type Option func(*Service)

// WithBcryptCost overrides bcrypt.DefaultCost; tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.bcryptCost = cost }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(store uow.Store, cfg Config, opts ...Option) (*Service, error) {
	if len(cfg.JWTSecret) < minSecretLen {
		return nil, fmt.Errorf("jwt secret must be at least %d bytes", minSecretLen)
	}
	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", cfg.TokenTTL)
	}

	s := &Service{
		store:      store,
		secret:     []byte(cfg.JWTSecret),
		ttl:        cfg.TokenTTL,
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}
	s.dummyHash = hash

	return s, nil
}

// Register creates a user with an empty wallet.
func (s *Service) Register(ctx context.Context, username, password string, role users.Role) (users.User, error) {
	username = strings.TrimSpace(username)

	switch {
	case utf8.RuneCountInString(username) < minUsernameLen:
		return users.User{}, fmt.Errorf("%w: username must be at least %d characters", ErrInvalidInput, minUsernameLen)
	case len(password) < minPasswordLen:
		return users.User{}, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLen)
	case len(password) > maxPasswordLen:
		return users.User{}, fmt.Errorf("%w: password must be at most %d bytes", ErrInvalidInput, maxPasswordLen)
	case !role.Valid():
		return users.User{}, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return users.User{}, fmt.Errorf("hash password: %w", err)
	}

	var created users.User

	err = uow.Run(ctx, s.store, uow.ReadWrite, func(tx uow.Tx) error {
		var err error
		created, err = tx.Users().Create(ctx, users.User{
			Username:     username,
			PasswordHash: string(hash),
			Role:         role,
		})
		return err
	})
	if err != nil {
		return users.User{}, fmt.Errorf("register: %w", err)
	}

	return created, nil
}

// Authenticate returns the user when password matches.
func (s *Service) Authenticate(ctx context.Context, username, password string) (users.User, error) {
	var u users.User

	err := uow.Run(ctx, s.store, uow.ReadOnly, func(tx uow.Tx) error {
		var err error
		u, err = tx.Users().GetByUsername(ctx, strings.TrimSpace(username))
		return err
	})
	if errors.Is(err, users.ErrUserNotFound) {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return users.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return users.User{}, fmt.Errorf("authenticate: %w", err)
	}

	err = bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	if err != nil {
		return users.User{}, ErrInvalidCredentials
	}

	return u, nil
}

// Get returns the user behind an authenticated principal.
func (s *Service) Get(ctx context.Context, userID uint64) (users.User, error) {
	var u users.User

	err := uow.Run(ctx, s.store, uow.ReadOnly, func(tx uow.Tx) error {
		var err error
		u, err = tx.Users().Get(ctx, userID)
		return err
	})
	if err != nil {
		return users.User{}, fmt.Errorf("get user: %w", err)
	}

	return u, nil
}

// IssueToken signs an HS256 token for u valid for the configured TTL.
func (s *Service) IssueToken(u users.User) (string, time.Time, error) {
	now := s.now()
	expires := now.Add(s.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: u.ID,
		Role:   string(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   u.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return signed, expires, nil
}

// ParseToken verifies signature, issuer and expiry.
func (s *Service) ParseToken(raw string) (Principal, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return Principal{}, ErrInvalidToken
	}

	role := users.Role(claims.Role)
	if claims.UserID == 0 || !role.Valid() {
		return Principal{}, fmt.Errorf("%w: malformed claims", ErrInvalidToken)
	}

	return Principal{UserID: claims.UserID, Role: role}, nil
}
