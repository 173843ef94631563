package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/fastprodman/surveyledger/internal/repos/surveys"
	"github.com/fastprodman/surveyledger/internal/repos/uow"
	"github.com/fastprodman/surveyledger/internal/repos/users"
)

// UpdateSurveyStatus approves or rejects a pending survey. Only the status
// changes: approval pays nothing out and rejection refunds nothing.
func (s *Service) UpdateSurveyStatus(
	ctx context.Context,
	surveyID uint64,
	newStatus surveys.Status,
	actorRole users.Role,
) (survey surveys.Survey, err error) {
	start := time.Now()
	defer func() { s.observe(opUpdateStatus, start, err) }()

	if actorRole != users.RoleAdmin {
		return surveys.Survey{}, fmt.Errorf("%w: only admins may change survey status", ErrForbidden)
	}

	switch newStatus {
	case surveys.StatusApproved, surveys.StatusRejected:
	case surveys.StatusDraft, surveys.StatusPending, surveys.StatusCompleted:
		return surveys.Survey{}, fmt.Errorf("%w: cannot set status %q", ErrInvalidTransition, newStatus)
	default:
		return surveys.Survey{}, invalid("status", fmt.Sprintf("unknown status %q", newStatus))
	}

	err = uow.Run(ctx, s.store, uow.ReadWrite, func(tx uow.Tx) error {
		current, err := tx.Surveys().LockAndGet(ctx, surveyID)
		if err != nil {
			return fmt.Errorf("lock survey: %w", err)
		}

		if current.Status != surveys.StatusPending {
			return fmt.Errorf("%w: survey is %s, not pending", ErrInvalidTransition, current.Status)
		}

		survey, err = tx.Surveys().UpdateStatus(ctx, surveyID, newStatus)
		if err != nil {
			return fmt.Errorf("update status: %w", err)
		}

		return nil
	})
	if err != nil {
		return surveys.Survey{}, fmt.Errorf("update survey status: %w", err)
	}

	s.log.InfoContext(ctx, "survey status changed",
		"survey_id", surveyID,
		"status", string(newStatus),
	)

	return survey, nil
}
