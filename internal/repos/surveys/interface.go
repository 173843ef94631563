package surveys

import (
	"context"
	"errors"
	"time"
)

var ErrSurveyNotFound = errors.New("survey not found")

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCompleted Status = "completed"
)

type QuestionType string

const (
	QuestionMCQ      QuestionType = "mcq"
	QuestionCheckbox QuestionType = "checkbox"
	QuestionText     QuestionType = "text"
	QuestionRating   QuestionType = "rating"
	QuestionRanking  QuestionType = "ranking"
)

type Question struct {
	Type      QuestionType `json:"type"`
	Text      string       `json:"text"`
	Options   []string     `json:"options,omitempty"`
	MinRating *int         `json:"minRating,omitempty"`
	MaxRating *int         `json:"maxRating,omitempty"`
	Required  bool         `json:"required"`
}

// Survey amounts are in cents. BudgetMinor = RewardMinor * ParticipantQuota
// = CommissionMinor + EscrowMinor, fixed at funding time.
type Survey struct {
	ID                 uint64
	CreatorID          uint64
	Title              string
	Description        string
	Questions          []Question
	RewardMinor        int64
	ParticipantQuota   int64
	TimeLimitMinutes   int64
	CompletedResponses int64
	Status             Status
	BudgetMinor        int64
	CommissionMinor    int64
	EscrowMinor        int64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type Creator struct {
	ID       uint64
	Username string
	Role     string
}

// Listing is a survey joined with its creator.
type Listing struct {
	Survey  Survey
	Creator Creator
}

// Filter narrows List. Zero values mean "any".
type Filter struct {
	CreatorID uint64
	Status    Status
}

type Surveys interface {
	Insert(ctx context.Context, s Survey) (Survey, error)
	Get(ctx context.Context, surveyID uint64) (Survey, error)
	LockAndGet(ctx context.Context, surveyID uint64) (Survey, error)
	UpdateStatus(ctx context.Context, surveyID uint64, status Status) (Survey, error)
	// List returns matching surveys newest first.
	List(ctx context.Context, f Filter) ([]Listing, error)
}
