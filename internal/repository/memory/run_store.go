package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"bank-reconciliation-engine/internal/models"
	"bank-reconciliation-engine/internal/services/reconciliation"
)

// RunStore keeps reconciliation run records in a map guarded by a RWMutex.
type RunStore struct {
	mu   sync.RWMutex
	runs map[uuid.UUID]*models.ReconciliationRun
}

var _ reconciliation.RunStore = (*RunStore)(nil)

func NewRunStore() *RunStore {
	return &RunStore{runs: make(map[uuid.UUID]*models.ReconciliationRun)}
}

func (s *RunStore) CreateRun(ctx context.Context, r *models.ReconciliationRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[r.ID]; ok {
		return fmt.Errorf("run %s already exists", r.ID)
	}
	s.runs[r.ID] = copyRun(r)
	return nil
}

func (s *RunStore) UpdateRun(ctx context.Context, r *models.ReconciliationRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[r.ID]; !ok {
		return fmt.Errorf("run %s: %w", r.ID, reconciliation.ErrNotFound)
	}
	s.runs[r.ID] = copyRun(r)
	return nil
}

// GetRun returns a stored run, mainly for test assertions.
func (s *RunStore) GetRun(id uuid.UUID) (*models.ReconciliationRun, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.runs[id]
	if !ok {
		return nil, false
	}
	return copyRun(r), true
}
