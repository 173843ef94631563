package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/fastprodman/surveyledger/internal/repos/surveys"
	"github.com/fastprodman/surveyledger/internal/repos/uow"
	"github.com/fastprodman/surveyledger/internal/repos/users"
)

// ListSurveys returns the surveys visible to the viewer, newest first:
// businesses see their own, participants see approved ones, admins see all.
func (s *Service) ListSurveys(ctx context.Context, viewerID uint64, role users.Role) (list []surveys.Listing, err error) {
	start := time.Now()
	defer func() { s.observe(opListSurveys, start, err) }()

	var filter surveys.Filter

	switch role {
	case users.RoleBusiness:
		filter.CreatorID = viewerID
	case users.RoleParticipant:
		filter.Status = surveys.StatusApproved
	case users.RoleAdmin:
	default:
		return nil, fmt.Errorf("%w: unknown role %q", ErrForbidden, role)
	}

	err = uow.Run(ctx, s.store, uow.ReadOnly, func(tx uow.Tx) error {
		found, err := tx.Surveys().List(ctx, filter)
		if err != nil {
			return fmt.Errorf("list: %w", err)
		}

		list = found

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list surveys: %w", err)
	}

	if list == nil {
		list = []surveys.Listing{}
	}

	return list, nil
}
