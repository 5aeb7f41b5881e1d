package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"bank-reconciliation-engine/internal/models"
	"bank-reconciliation-engine/internal/services/reconciliation"
)

// AllocationStore keeps the allocation ledger as an append-only slice, so
// listings come back in insertion order the way a serial-keyed table would.
type AllocationStore struct {
	mu      sync.RWMutex
	entries []*models.PaymentAllocation
}

var _ reconciliation.AllocationStore = (*AllocationStore)(nil)

func NewAllocationStore() *AllocationStore {
	return &AllocationStore{}
}

func (s *AllocationStore) CreateAllocation(ctx context.Context, a *models.PaymentAllocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.entries {
		if e.ID == a.ID {
			return fmt.Errorf("allocation %s already exists", a.ID)
		}
	}
	s.entries = append(s.entries, copyAllocation(a))
	return nil
}

func (s *AllocationStore) GetAllocation(ctx context.Context, id uuid.UUID) (*models.PaymentAllocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.entries {
		if e.ID == id {
			return copyAllocation(e), nil
		}
	}
	return nil, fmt.Errorf("allocation %s: %w", id, reconciliation.ErrNotFound)
}

func (s *AllocationStore) ListByPayment(ctx context.Context, paymentID uuid.UUID) ([]*models.PaymentAllocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.PaymentAllocation
	for _, e := range s.entries {
		if e.PaymentID == paymentID {
			out = append(out, copyAllocation(e))
		}
	}
	return out, nil
}

func (s *AllocationStore) ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]*models.PaymentAllocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.PaymentAllocation
	for _, e := range s.entries {
		if e.TransactionID == transactionID {
			out = append(out, copyAllocation(e))
		}
	}
	return out, nil
}

func (s *AllocationStore) ListAllocations(ctx context.Context) ([]*models.PaymentAllocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.PaymentAllocation, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, copyAllocation(e))
	}
	return out, nil
}
