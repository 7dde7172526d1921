package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"idmatch/internal/verify/models"
)

// Memory keeps runs in a map for single-process deployments and tests.
type Memory struct {
	mu   sync.RWMutex
	runs map[uuid.UUID]models.Run
}

func NewMemory() *Memory {
	return &Memory{runs: make(map[uuid.UUID]models.Run)}
}

func (s *Memory) Save(_ context.Context, run *models.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = cloneRun(run)
	return nil
}

func (s *Memory) FindByID(_ context.Context, id uuid.UUID) (*models.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := cloneRun(&run)
	return &copied, nil
}

func (s *Memory) ListRecent(_ context.Context, limit int) ([]*models.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Run, 0, len(s.runs))
	for _, run := range s.runs {
		summary := run
		summary.Results = nil
		out = append(out, &summary)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// cloneRun copies the run and its result slice so callers cannot mutate
// stored state through a shared backing array.
func cloneRun(run *models.Run) models.Run {
	copied := *run
	if run.Results != nil {
		copied.Results = make([]models.RowResult, len(run.Results))
		copy(copied.Results, run.Results)
	}
	return copied
}
