package reconciliation

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"bank-reconciliation-engine/internal/models"
	"bank-reconciliation-engine/internal/services/ledger"
)

type commitRequest struct {
	tx         *models.BankTransaction
	paymentID  uuid.UUID
	amount     *decimal.Decimal // explicit amount; nil allocates up to cap
	cap        decimal.Decimal  // unallocated remainder of the transaction
	confidence float64
	matchType  models.MatchType
	createdBy  string
	note       string
	details    datatypes.JSON
}

// commit is the single path every allocation takes: serialize on the
// payment's lock, re-read the payment, move the paid amount, append the
// ledger entry, then update the transaction. The payment write carries a
// version check so a commit from another process shows up as a conflict
// and triggers a bounded retry instead of a lost update.
func (s *Service) commit(ctx context.Context, req commitRequest) (*models.PaymentAllocation, error) {
	unlock := s.locks.acquire(req.paymentID)
	defer unlock()

	for attempt := 1; attempt <= maxCommitAttempts; attempt++ {
		p, err := s.payments.GetPayment(ctx, req.paymentID)
		if err != nil {
			return nil, err
		}

		amount := req.cap
		if req.amount != nil {
			amount = *req.amount
		} else if p.Outstanding().LessThan(amount) {
			// The transaction overshoots: allocate what the payment can
			// absorb and leave the remainder for a later pass.
			amount = p.Outstanding()
		}
		if req.amount == nil && !amount.IsPositive() {
			return nil, fmt.Errorf("payment %s settled before commit: %w", p.ID, ErrConcurrentModification)
		}

		expected := p.Version
		if err := ledger.Apply(p, amount); err != nil {
			return nil, err
		}
		p.Version++

		if err := s.payments.UpdatePayment(ctx, p, expected); err != nil {
			if errors.Is(err, ErrConcurrentModification) && attempt < maxCommitAttempts {
				log.Warnf("[Commit] payment %s moved underneath us, retrying (%d/%d)", p.ID, attempt, maxCommitAttempts)
				continue
			}
			return nil, err
		}

		alloc := &models.PaymentAllocation{
			ID:            uuid.New(),
			TransactionID: req.tx.ID,
			PaymentID:     p.ID,
			Amount:        amount,
			MatchType:     req.matchType,
			Confidence:    req.confidence,
			CreatedBy:     req.createdBy,
			Note:          req.note,
			CreatedAt:     s.now(),
		}
		if err := s.allocations.CreateAllocation(ctx, alloc); err != nil {
			// The paid amount moved but the ledger entry did not land; give
			// the amount back so the conservation invariant holds.
			s.undoPaidChange(ctx, p.ID, func(p *models.Payment) error {
				return ledger.Revert(p, amount)
			})
			return nil, err
		}

		if err := s.refreshTransaction(ctx, req.tx, alloc, req.confidence, req.matchType, req.details); err != nil {
			return nil, err
		}
		return alloc, nil
	}
	return nil, fmt.Errorf("commit allocation to payment %s: %w", req.paymentID, ErrConcurrentModification)
}

// refreshTransaction recomputes the transaction's state from the ledger and
// persists it. Reading the ledger back instead of trusting in-memory
// arithmetic keeps the transaction self-healing after partial failures.
func (s *Service) refreshTransaction(ctx context.Context, tx *models.BankTransaction, latest *models.PaymentAllocation, confidence float64, matchType models.MatchType, details datatypes.JSON) error {
	live, err := s.liveAllocations(ctx, tx.ID)
	if err != nil {
		return err
	}
	tx.Status = transactionStatusFor(tx.AbsAmount(), sumAllocations(live))
	if latest != nil {
		tx.MatchedPaymentID = &latest.PaymentID
	}
	tx.ConfidenceScore = confidence
	tx.MatchType = matchType
	if details != nil {
		tx.MatchDetails = details
	}
	return s.transactions.UpdateTransaction(ctx, tx)
}

// undoPaidChange compensates a paid-amount movement whose paired ledger
// write failed. Called holding the payment lock; failures here are logged
// loudly because they need operator attention.
func (s *Service) undoPaidChange(ctx context.Context, paymentID uuid.UUID, undo func(*models.Payment) error) {
	for attempt := 1; attempt <= maxCommitAttempts; attempt++ {
		p, err := s.payments.GetPayment(ctx, paymentID)
		if err != nil {
			log.Errorf("[Commit] cannot reload payment %s to undo paid change: %v", paymentID, err)
			return
		}
		expected := p.Version
		if err := undo(p); err != nil {
			log.Errorf("[Commit] cannot undo paid change on payment %s: %v", paymentID, err)
			return
		}
		p.Version++
		err = s.payments.UpdatePayment(ctx, p, expected)
		if err == nil {
			return
		}
		if !errors.Is(err, ErrConcurrentModification) {
			log.Errorf("[Commit] undo write failed for payment %s: %v", paymentID, err)
			return
		}
	}
	log.Errorf("[Commit] giving up undoing paid change on payment %s after %d attempts", paymentID, maxCommitAttempts)
}
