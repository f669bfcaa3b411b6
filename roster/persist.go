package roster

import (
	"context"

	"github.com/councilflow/councilflow/persistence"
)

// LoadFrom seeds the store from a weight repository. Stored reviewers
// replace in-memory ones with the same ID; reviewers only present in
// memory are kept.
func (s *WeightStore) LoadFrom(ctx context.Context, repo persistence.WeightRepo) error {
	stored, err := repo.LoadAll(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range stored {
		if e, ok := s.entries[r.ID]; ok {
			e.reviewer = r
		} else {
			s.entries[r.ID] = &weightEntry{reviewer: r}
		}
	}
	return nil
}

// FlushTo writes every reviewer's current weight and success rate to
// the repository. Called after recording outcomes so drift survives
// restarts.
func (s *WeightStore) FlushTo(ctx context.Context, repo persistence.WeightRepo) error {
	s.mu.RLock()
	reviewers := make([]weightEntry, 0, len(s.entries))
	for _, e := range s.entries {
		cp := *e
		cp.reviewer.PerformanceHistory = successRate(e.outcomes)
		reviewers = append(reviewers, cp)
	}
	s.mu.RUnlock()

	for i := range reviewers {
		if err := repo.SaveWeights(ctx, &reviewers[i].reviewer); err != nil {
			return err
		}
	}
	return nil
}
