package memory

import (
	"context"
	"slices"

	"github.com/fastprodman/surveyledger/internal/repos/surveys"
	"github.com/fastprodman/surveyledger/internal/repos/users"
)

type surveysRepo struct{ tx *memTx }

func (r surveysRepo) Insert(_ context.Context, s surveys.Survey) (surveys.Survey, error) {
	err := r.tx.check("surveys.insert", true)
	if err != nil {
		return surveys.Survey{}, err
	}

	st := r.tx.st
	if _, ok := st.users[s.CreatorID]; !ok {
		return surveys.Survey{}, users.ErrUserNotFound
	}
	if s.Status == "" {
		s.Status = surveys.StatusDraft
	}

	now := r.tx.store.now()
	s.ID = st.nextSurveyID
	st.nextSurveyID++
	s.CreatedAt = now
	s.UpdatedAt = now
	s.Questions = slices.Clone(s.Questions)
	st.surveys[s.ID] = s

	return s, nil
}

func (r surveysRepo) Get(_ context.Context, surveyID uint64) (surveys.Survey, error) {
	err := r.tx.check("surveys.get", false)
	if err != nil {
		return surveys.Survey{}, err
	}

	return r.get(surveyID)
}

func (r surveysRepo) LockAndGet(_ context.Context, surveyID uint64) (surveys.Survey, error) {
	err := r.tx.check("surveys.lock_and_get", true)
	if err != nil {
		return surveys.Survey{}, err
	}

	return r.get(surveyID)
}

func (r surveysRepo) get(surveyID uint64) (surveys.Survey, error) {
	s, ok := r.tx.st.surveys[surveyID]
	if !ok {
		return surveys.Survey{}, surveys.ErrSurveyNotFound
	}

	return s, nil
}

func (r surveysRepo) UpdateStatus(_ context.Context, surveyID uint64, status surveys.Status) (surveys.Survey, error) {
	err := r.tx.check("surveys.update_status", true)
	if err != nil {
		return surveys.Survey{}, err
	}

	s, ok := r.tx.st.surveys[surveyID]
	if !ok {
		return surveys.Survey{}, surveys.ErrSurveyNotFound
	}

	s.Status = status
	s.UpdatedAt = r.tx.store.now()
	r.tx.st.surveys[surveyID] = s

	return s, nil
}

func (r surveysRepo) List(_ context.Context, f surveys.Filter) ([]surveys.Listing, error) {
	err := r.tx.check("surveys.list", false)
	if err != nil {
		return nil, err
	}

	var out []surveys.Listing
	for _, s := range r.tx.st.surveys {
		if f.CreatorID != 0 && s.CreatorID != f.CreatorID {
			continue
		}
		if f.Status != "" && s.Status != f.Status {
			continue
		}

		creator := r.tx.st.users[s.CreatorID]
		out = append(out, surveys.Listing{
			Survey: s,
			Creator: surveys.Creator{
				ID:       creator.ID,
				Username: creator.Username,
				Role:     string(creator.Role),
			},
		})
	}

	// ids grow with creation time
	slices.SortFunc(out, func(a, b surveys.Listing) int {
		switch {
		case a.Survey.ID > b.Survey.ID:
			return -1
		case a.Survey.ID < b.Survey.ID:
			return 1
		default:
			return 0
		}
	})

	return out, nil
}
