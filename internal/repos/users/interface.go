package users

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrUserNotFound      = errors.New("user not found")
	ErrUsernameTaken     = errors.New("username already taken")
	ErrAdminExists       = errors.New("admin account already exists")
	ErrBalanceOverflow   = errors.New("balance out of range")
)

type Role string

const (
	RoleBusiness    Role = "business"
	RoleParticipant Role = "participant"
	RoleAdmin       Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleBusiness, RoleParticipant, RoleAdmin:
		return true
	default:
		return false
	}
}

// User is a platform user together with its wallet. BalanceMinor is in cents.
type User struct {
	ID           uint64
	Username     string
	PasswordHash string
	Role         Role
	BalanceMinor int64
	CreatedAt    time.Time
}

type Users interface {
	Create(ctx context.Context, u User) (User, error)
	Get(ctx context.Context, userID uint64) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	ListByRole(ctx context.Context, role Role) ([]User, error)
	List(ctx context.Context) ([]User, error)
	// LockAndGetBalance row-locks the user until the surrounding unit of work ends.
	LockAndGetBalance(ctx context.Context, userID uint64) (int64, error)
	// IncreaseBalance fails with ErrBalanceOverflow rather than wrap.
	IncreaseBalance(ctx context.Context, userID uint64, amount int64) (int64, error)
	// DecreaseBalance never takes a balance below zero; it returns
	// ErrInsufficientFunds instead.
	DecreaseBalance(ctx context.Context, userID uint64, amount int64) (int64, error)
}
