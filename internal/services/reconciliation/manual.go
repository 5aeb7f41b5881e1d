package reconciliation

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bank-reconciliation-engine/internal/models"
	"bank-reconciliation-engine/internal/services/ledger"
)

// MatchManual applies an operator-chosen pairing with confidence 1.0. It
// bypasses candidate filtering and the confidence threshold, but every
// ledger invariant still holds: an override chooses which payment, never
// how much conservation bends. A nil amount allocates as much of the
// transaction's remainder as the payment can absorb. The note lands on the
// ledger entry.
func (s *Service) MatchManual(ctx context.Context, txID, paymentID uuid.UUID, amount *decimal.Decimal, note string) (*models.PaymentAllocation, error) {
	tx, err := s.transactions.GetTransaction(ctx, txID)
	if err != nil {
		return nil, err
	}
	if tx.Status == models.TransactionIgnored {
		return nil, &models.ValidationError{Entity: "transaction", Field: "status", Reason: "is ignored; unignore it before matching"}
	}
	p, err := s.payments.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if tx.Currency != p.Currency {
		return nil, &models.ValidationError{
			Entity: "match",
			Field:  "currency",
			Reason: fmt.Sprintf("transaction is %s, payment is %s", tx.Currency, p.Currency),
		}
	}

	live, err := s.liveAllocations(ctx, tx.ID)
	if err != nil {
		return nil, err
	}
	remaining := tx.AbsAmount().Sub(sumAllocations(live))
	if !remaining.IsPositive() {
		return nil, &models.ValidationError{Entity: "transaction", Field: "amount", Reason: "is fully allocated"}
	}

	req := commitRequest{
		tx:         tx,
		paymentID:  paymentID,
		cap:        remaining,
		confidence: 1.0,
		matchType:  models.MatchManual,
		createdBy:  operatorActor,
		note:       note,
		details: marshalDetails(models.MatchResult{
			Matched:    true,
			PaymentID:  paymentID,
			Confidence: 1.0,
			MatchType:  models.MatchManual,
		}),
	}
	if amount != nil {
		if !amount.IsPositive() {
			return nil, &models.ValidationError{Entity: "allocation", Field: "amount", Reason: "must be positive"}
		}
		if amount.GreaterThan(remaining) {
			return nil, fmt.Errorf("allocate %s with only %s of transaction %s unallocated: %w",
				amount, remaining, tx.ID, ledger.ErrExceedsBalance)
		}
		req.amount = amount
	}
	return s.commit(ctx, req)
}

// RevertAllocation compensates one ledger entry: the payment gives the
// amount back and a negated entry pointing at the original is appended.
// The original row is never updated or deleted.
func (s *Service) RevertAllocation(ctx context.Context, allocationID uuid.UUID) error {
	a, err := s.allocations.GetAllocation(ctx, allocationID)
	if err != nil {
		return err
	}
	if a.Reversal() {
		return &models.ValidationError{Entity: "allocation", Field: "id", Reason: "is a compensating entry"}
	}
	siblings, err := s.allocations.ListByTransaction(ctx, a.TransactionID)
	if err != nil {
		return err
	}
	for _, sib := range siblings {
		if sib.ReversesID != nil && *sib.ReversesID == a.ID {
			return &models.ValidationError{Entity: "allocation", Field: "id", Reason: "is already reversed"}
		}
	}
	tx, err := s.transactions.GetTransaction(ctx, a.TransactionID)
	if err != nil {
		return err
	}
	return s.revert(ctx, tx, a)
}

// Unmatch reverts every live allocation on the transaction, returning it to
// Unmatched and the touched payments to their prior paid amounts. A
// transaction with nothing to revert is left as is.
func (s *Service) Unmatch(ctx context.Context, txID uuid.UUID) error {
	tx, err := s.transactions.GetTransaction(ctx, txID)
	if err != nil {
		return err
	}
	live, err := s.liveAllocations(ctx, tx.ID)
	if err != nil {
		return err
	}
	for _, a := range live {
		if err := s.revert(ctx, tx, a); err != nil {
			return err
		}
	}
	return nil
}

// revert performs the locked compensation of one live entry.
func (s *Service) revert(ctx context.Context, tx *models.BankTransaction, a *models.PaymentAllocation) error {
	unlock := s.locks.acquire(a.PaymentID)
	defer unlock()

	for attempt := 1; attempt <= maxCommitAttempts; attempt++ {
		p, err := s.payments.GetPayment(ctx, a.PaymentID)
		if err != nil {
			return err
		}
		expected := p.Version
		if err := ledger.Revert(p, a.Amount); err != nil {
			return err
		}
		p.Version++
		if err := s.payments.UpdatePayment(ctx, p, expected); err != nil {
			if errors.Is(err, ErrConcurrentModification) && attempt < maxCommitAttempts {
				continue
			}
			return err
		}

		comp := &models.PaymentAllocation{
			ID:            uuid.New(),
			TransactionID: a.TransactionID,
			PaymentID:     a.PaymentID,
			Amount:        a.Amount.Neg(),
			MatchType:     a.MatchType,
			Confidence:    a.Confidence,
			ReversesID:    &a.ID,
			CreatedBy:     operatorActor,
			CreatedAt:     s.now(),
		}
		if err := s.allocations.CreateAllocation(ctx, comp); err != nil {
			s.undoPaidChange(ctx, a.PaymentID, func(p *models.Payment) error {
				return ledger.Apply(p, a.Amount)
			})
			return err
		}
		return s.settleAfterRevert(ctx, tx)
	}
	return fmt.Errorf("revert allocation %s: %w", a.ID, ErrConcurrentModification)
}

// settleAfterRevert recomputes the transaction from what is still live in
// the ledger. The last confidence score and match details stay behind for
// audit even when the transaction drops back to Unmatched.
func (s *Service) settleAfterRevert(ctx context.Context, tx *models.BankTransaction) error {
	live, err := s.liveAllocations(ctx, tx.ID)
	if err != nil {
		return err
	}
	tx.Status = transactionStatusFor(tx.AbsAmount(), sumAllocations(live))
	if len(live) == 0 {
		tx.MatchedPaymentID = nil
	} else {
		tx.MatchedPaymentID = &live[len(live)-1].PaymentID
	}
	return s.transactions.UpdateTransaction(ctx, tx)
}

// Ignore excludes a transaction from matching, for lines like bank fees
// that will never correspond to a payment. Allocated transactions must be
// unmatched first.
func (s *Service) Ignore(ctx context.Context, txID uuid.UUID) error {
	tx, err := s.transactions.GetTransaction(ctx, txID)
	if err != nil {
		return err
	}
	live, err := s.liveAllocations(ctx, tx.ID)
	if err != nil {
		return err
	}
	if len(live) > 0 {
		return &models.ValidationError{Entity: "transaction", Field: "status", Reason: "has live allocations; unmatch it before ignoring"}
	}
	tx.Status = models.TransactionIgnored
	tx.MatchedPaymentID = nil
	tx.ConfidenceScore = 0
	tx.MatchType = models.MatchNone
	return s.transactions.UpdateTransaction(ctx, tx)
}

// Unignore returns an ignored transaction to the matchable pool.
func (s *Service) Unignore(ctx context.Context, txID uuid.UUID) error {
	tx, err := s.transactions.GetTransaction(ctx, txID)
	if err != nil {
		return err
	}
	if tx.Status != models.TransactionIgnored {
		return &models.ValidationError{Entity: "transaction", Field: "status", Reason: "is not ignored"}
	}
	tx.Status = models.TransactionUnmatched
	return s.transactions.UpdateTransaction(ctx, tx)
}
