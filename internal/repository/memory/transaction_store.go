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

// TransactionStore keeps bank transactions in a map guarded by a RWMutex.
type TransactionStore struct {
	mu  sync.RWMutex
	txs map[uuid.UUID]*models.BankTransaction
}

var _ reconciliation.TransactionStore = (*TransactionStore)(nil)

func NewTransactionStore() *TransactionStore {
	return &TransactionStore{txs: make(map[uuid.UUID]*models.BankTransaction)}
}

// Add inserts or replaces a transaction.
func (s *TransactionStore) Add(tx *models.BankTransaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs[tx.ID] = copyTransaction(tx)
}

func (s *TransactionStore) GetTransaction(ctx context.Context, id uuid.UUID) (*models.BankTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, ok := s.txs[id]
	if !ok {
		return nil, fmt.Errorf("transaction %s: %w", id, reconciliation.ErrNotFound)
	}
	return copyTransaction(tx), nil
}

func (s *TransactionStore) ListUnmatched(ctx context.Context, accountID uuid.UUID) ([]*models.BankTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.BankTransaction
	for _, tx := range s.txs {
		if tx.Status != models.TransactionUnmatched {
			continue
		}
		if !accountMatches(accountID, tx.AccountID) {
			continue
		}
		out = append(out, copyTransaction(tx))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].TransactionDate.Equal(out[j].TransactionDate) {
			return out[i].TransactionDate.Before(out[j].TransactionDate)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *TransactionStore) UpdateTransaction(ctx context.Context, tx *models.BankTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.txs[tx.ID]; !ok {
		return fmt.Errorf("transaction %s: %w", tx.ID, reconciliation.ErrNotFound)
	}
	s.txs[tx.ID] = copyTransaction(tx)
	return nil
}

func (s *TransactionStore) CountByStatus(ctx context.Context, accountID uuid.UUID) (map[models.TransactionStatus]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[models.TransactionStatus]int64)
	for _, tx := range s.txs {
		if !accountMatches(accountID, tx.AccountID) {
			continue
		}
		counts[tx.Status]++
	}
	return counts, nil
}
