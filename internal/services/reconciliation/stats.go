package reconciliation

import (
	"context"

	"github.com/google/uuid"

	"bank-reconciliation-engine/internal/models"
)

// Stats summarizes transaction states for an account, or across all
// accounts with uuid.Nil.
type Stats struct {
	Matched          int64 `json:"matched"`
	PartiallyMatched int64 `json:"partially_matched"`
	Unmatched        int64 `json:"unmatched"`
	Ignored          int64 `json:"ignored"`
}

func (s *Service) Stats(ctx context.Context, accountID uuid.UUID) (Stats, error) {
	counts, err := s.transactions.CountByStatus(ctx, accountID)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		Matched:          counts[models.TransactionMatched],
		PartiallyMatched: counts[models.TransactionPartiallyMatched],
		Unmatched:        counts[models.TransactionUnmatched],
		Ignored:          counts[models.TransactionIgnored],
	}, nil
}

// Audit returns the allocation ledger, filtered to one payment when
// paymentID is non-nil. Compensating entries are included; the ledger is
// the audit trail and hides nothing.
func (s *Service) Audit(ctx context.Context, paymentID *uuid.UUID) ([]*models.PaymentAllocation, error) {
	if paymentID != nil {
		return s.allocations.ListByPayment(ctx, *paymentID)
	}
	return s.allocations.ListAllocations(ctx)
}

// Transaction returns one transaction together with its ledger trail.
func (s *Service) Transaction(ctx context.Context, id uuid.UUID) (*models.BankTransaction, []*models.PaymentAllocation, error) {
	tx, err := s.transactions.GetTransaction(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	trail, err := s.allocations.ListByTransaction(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return tx, trail, nil
}
