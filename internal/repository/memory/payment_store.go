package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"bank-reconciliation-engine/internal/models"
	"bank-reconciliation-engine/internal/services/reconciliation"
)

// PaymentStore keeps expected payments in a map guarded by a RWMutex.
// UpdatePayment enforces the same optimistic version check the database
// layer does, so concurrency tests behave like production.
type PaymentStore struct {
	mu       sync.RWMutex
	payments map[uuid.UUID]*models.Payment
}

var _ reconciliation.PaymentStore = (*PaymentStore)(nil)

func NewPaymentStore() *PaymentStore {
	return &PaymentStore{payments: make(map[uuid.UUID]*models.Payment)}
}

// Add inserts or replaces a payment.
func (s *PaymentStore) Add(p *models.Payment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payments[p.ID] = copyPayment(p)
}

func (s *PaymentStore) GetPayment(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.payments[id]
	if !ok {
		return nil, fmt.Errorf("payment %s: %w", id, reconciliation.ErrNotFound)
	}
	return copyPayment(p), nil
}

func (s *PaymentStore) ListOpenCandidates(ctx context.Context, accountID uuid.UUID, currency string) ([]*models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Payment
	for _, p := range s.payments {
		if p.Status == models.PaymentPaid {
			continue
		}
		if p.Currency != currency {
			continue
		}
		if !candidateAccount(accountID, p.AccountID) {
			continue
		}
		if !p.Outstanding().IsPositive() {
			continue
		}
		out = append(out, copyPayment(p))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *PaymentStore) UpdatePayment(ctx context.Context, p *models.Payment, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.payments[p.ID]
	if !ok {
		return fmt.Errorf("payment %s: %w", p.ID, reconciliation.ErrNotFound)
	}
	if current.Version != expectedVersion {
		return fmt.Errorf("payment %s at version %d, expected %d: %w",
			p.ID, current.Version, expectedVersion, reconciliation.ErrConcurrentModification)
	}
	s.payments[p.ID] = copyPayment(p)
	return nil
}

// candidateAccount reports whether a payment owned by owner is eligible for
// a transaction on the filter account. Payments without an account bind to
// any transaction.
func candidateAccount(filter, owner uuid.UUID) bool {
	return filter == uuid.Nil || owner == uuid.Nil || owner == filter
}
