// Package ledger moves money between wallets. Every operation runs in one
// unit of work: balances, transaction rows and surveys change together or
// not at all, and balances never go below zero.
package ledger

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fastprodman/surveyledger/internal/infra/metrics"
	"github.com/fastprodman/surveyledger/internal/repos/uow"
	"github.com/fastprodman/surveyledger/pkg/money"
)

const (
	opDeposit      = "deposit"
	opFundSurvey   = "fund_survey"
	opUpdateStatus = "update_survey_status"
	opWalletView   = "wallet_view"
	opListSurveys  = "list_surveys"
	opAudit        = "audit"
)

type Config struct {
	// CommissionRate is the share of a survey budget credited to the admin.
	CommissionRate decimal.Decimal
	// AdminID is the account receiving commissions, usually from ResolveAdmin.
	// Zero makes FundSurvey fail with ErrNoAdminAccount.
	AdminID uint64
}

type Service struct {
	store   uow.Store
	rate    decimal.Decimal
	adminID uint64
	log     *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(store uow.Store, cfg Config, opts ...Option) (*Service, error) {
	err := money.ValidateRate(cfg.CommissionRate)
	if err != nil {
		return nil, fmt.Errorf("commission rate: %w", err)
	}

	s := &Service{
		store:   store,
		rate:    cfg.CommissionRate,
		adminID: cfg.AdminID,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

func (s *Service) AdminID() uint64 { return s.adminID }

func (s *Service) CommissionRate() decimal.Decimal { return s.rate }

func (s *Service) observe(op string, start time.Time, err error) {
	s.metrics.ObserveLedgerOp(op, ErrorCode(err), time.Since(start))
}

// lockOrder returns the distinct ids ascending. Row locks are always taken in
// this order so two transfers touching the same pair cannot deadlock.
func lockOrder(ids ...uint64) []uint64 {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}
