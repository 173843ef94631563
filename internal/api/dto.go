package api

import (
	"time"

	"github.com/fastprodman/surveyledger/internal/repos/surveys"
	"github.com/fastprodman/surveyledger/internal/repos/transactions"
	"github.com/fastprodman/surveyledger/internal/repos/users"
	"github.com/fastprodman/surveyledger/internal/services/ledger"
	"github.com/fastprodman/surveyledger/pkg/money"
)

// Money is always rendered as a string with two fraction digits.

type userResponse struct {
	ID            uint64    `json:"id"`
	Username      string    `json:"username"`
	Role          string    `json:"role"`
	WalletBalance string    `json:"walletBalance"`
	CreatedAt     time.Time `json:"createdAt"`
}

func toUserResponse(u users.User) userResponse {
	return userResponse{
		ID:            u.ID,
		Username:      u.Username,
		Role:          string(u.Role),
		WalletBalance: money.Format(u.BalanceMinor),
		CreatedAt:     u.CreatedAt,
	}
}

type transactionResponse struct {
	ID          uint64    `json:"id"`
	Amount      string    `json:"amount"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Reference   string    `json:"reference"`
	SurveyID    *uint64   `json:"surveyId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type walletResponse struct {
	Balance      string                `json:"balance"`
	Transactions []transactionResponse `json:"transactions"`
}

func toWalletResponse(v ledger.WalletView) walletResponse {
	out := walletResponse{
		Balance:      money.Format(v.BalanceMinor),
		Transactions: make([]transactionResponse, 0, len(v.Transactions)),
	}

	for _, r := range v.Transactions {
		out.Transactions = append(out.Transactions, toTransactionResponse(r))
	}

	return out
}

func toTransactionResponse(r transactions.Record) transactionResponse {
	return transactionResponse{
		ID:          r.ID,
		Amount:      money.Format(r.AmountMinor),
		Type:        string(r.Kind),
		Description: r.Description,
		Reference:   r.Reference,
		SurveyID:    r.SurveyID,
		CreatedAt:   r.CreatedAt,
	}
}

type surveyResponse struct {
	ID                 uint64             `json:"id"`
	CreatorID          uint64             `json:"creatorId"`
	Title              string             `json:"title"`
	Description        string             `json:"description"`
	Questions          []surveys.Question `json:"questions"`
	RewardPerResponse  string             `json:"rewardPerResponse"`
	ParticipantQuota   int64              `json:"participantQuota"`
	TimeLimit          int64              `json:"timeLimit"`
	CompletedResponses int64              `json:"completedResponses"`
	Status             string             `json:"status"`
	Budget             string             `json:"budget"`
	Commission         string             `json:"commission"`
	Escrow             string             `json:"escrow"`
	CreatedAt          time.Time          `json:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt"`
	Creator            *creatorResponse   `json:"creator,omitempty"`
}

type creatorResponse struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

func toSurveyResponse(s surveys.Survey) surveyResponse {
	questions := s.Questions
	if questions == nil {
		questions = []surveys.Question{}
	}

	return surveyResponse{
		ID:                 s.ID,
		CreatorID:          s.CreatorID,
		Title:              s.Title,
		Description:        s.Description,
		Questions:          questions,
		RewardPerResponse:  money.Format(s.RewardMinor),
		ParticipantQuota:   s.ParticipantQuota,
		TimeLimit:          s.TimeLimitMinutes,
		CompletedResponses: s.CompletedResponses,
		Status:             string(s.Status),
		Budget:             money.Format(s.BudgetMinor),
		Commission:         money.Format(s.CommissionMinor),
		Escrow:             money.Format(s.EscrowMinor),
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
}

func toListingResponse(l surveys.Listing) surveyResponse {
	out := toSurveyResponse(l.Survey)
	out.Creator = &creatorResponse{ID: l.Creator.ID, Username: l.Creator.Username, Role: l.Creator.Role}

	return out
}

type violationResponse struct {
	Kind      string `json:"kind"`
	AccountID uint64 `json:"accountId,omitempty"`
	SurveyID  uint64 `json:"surveyId,omitempty"`
	Detail    string `json:"detail"`
}

type auditResponse struct {
	OK         bool                `json:"ok"`
	Accounts   int                 `json:"accounts"`
	Surveys    int                 `json:"surveys"`
	Violations []violationResponse `json:"violations"`
}

func toAuditResponse(r ledger.AuditReport) auditResponse {
	out := auditResponse{
		OK:         r.OK(),
		Accounts:   r.Accounts,
		Surveys:    r.Surveys,
		Violations: make([]violationResponse, 0, len(r.Violations)),
	}

	for _, v := range r.Violations {
		out.Violations = append(out.Violations, violationResponse{
			Kind:      string(v.Kind),
			AccountID: v.AccountID,
			SurveyID:  v.SurveyID,
			Detail:    v.Detail,
		})
	}

	return out
}
