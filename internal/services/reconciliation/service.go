// Package reconciliation orchestrates the matching pass: it gathers
// candidates, runs the composite matcher, and commits allocations while
// holding the conservation invariants between payments and the ledger.
package reconciliation

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"bank-reconciliation-engine/internal/models"
	"bank-reconciliation-engine/internal/services/ledger"
	"bank-reconciliation-engine/internal/services/matching"
)

const (
	engineActor   = "engine"
	operatorActor = "operator"

	// maxCommitAttempts bounds perseverance against concurrent writers.
	maxCommitAttempts = 3
)

// Service runs reconciliation over the transaction and payment stores. It
// is safe for concurrent use; commits against the same payment serialize
// on per-payment locks plus a version check at the store.
type Service struct {
	transactions TransactionStore
	payments     PaymentStore
	allocations  AllocationStore
	runs         RunStore
	matcher      *matching.Engine
	locks        *paymentLocks
	workers      int
	now          func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock substitutes the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithWorkers sets how many transactions a batch processes concurrently.
// The default of 1 processes in input order, which keeps batch results
// reproducible.
func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithRunStore enables persistent batch run records.
func WithRunStore(rs RunStore) Option {
	return func(s *Service) { s.runs = rs }
}

func NewService(transactions TransactionStore, payments PaymentStore, allocations AllocationStore, matcher *matching.Engine, opts ...Option) *Service {
	s := &Service{
		transactions: transactions,
		payments:     payments,
		allocations:  allocations,
		matcher:      matcher,
		locks:        newPaymentLocks(),
		workers:      1,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ReconcileTransaction runs one transaction through the matching pipeline
// and, if a candidate clears the confidence threshold, commits a single
// allocation against it. No candidate clearing the threshold is a normal
// outcome reported as matched=false.
func (s *Service) ReconcileTransaction(ctx context.Context, txID uuid.UUID) (models.MatchResult, error) {
	tx, err := s.transactions.GetTransaction(ctx, txID)
	if err != nil {
		return models.MatchResult{}, err
	}
	return s.reconcile(ctx, tx)
}

func (s *Service) reconcile(ctx context.Context, tx *models.BankTransaction) (models.MatchResult, error) {
	if err := tx.Validate(); err != nil {
		return models.MatchResult{}, err
	}
	if tx.Status == models.TransactionMatched || tx.Status == models.TransactionIgnored {
		return models.MatchResult{}, nil
	}

	live, err := s.liveAllocations(ctx, tx.ID)
	if err != nil {
		return models.MatchResult{}, err
	}
	remaining := tx.AbsAmount().Sub(sumAllocations(live))
	if !remaining.IsPositive() {
		return models.MatchResult{}, nil
	}

	candidates, err := s.payments.ListOpenCandidates(ctx, tx.AccountID, tx.Currency)
	if err != nil {
		return models.MatchResult{}, err
	}
	// A later pass may resolve a partially matched remainder, but against a
	// different payment than the ones already holding part of this
	// transaction.
	candidates = excludePayments(candidates, live)

	// Score against the unallocated remainder, not the original amount, so
	// residual matching behaves like matching a fresh transaction of that
	// size.
	scoring := *tx
	scoring.Amount = remaining
	if tx.Amount.IsNegative() {
		scoring.Amount = remaining.Neg()
	}
	result := s.matcher.Match(ctx, &scoring, candidates)

	if !result.Matched {
		tx.ConfidenceScore = result.Confidence
		tx.MatchDetails = marshalDetails(result)
		if err := s.transactions.UpdateTransaction(ctx, tx); err != nil {
			return result, err
		}
		return result, nil
	}

	_, err = s.commit(ctx, commitRequest{
		tx:         tx,
		paymentID:  result.PaymentID,
		cap:        remaining,
		confidence: result.Confidence,
		matchType:  result.MatchType,
		createdBy:  engineActor,
		details:    marshalDetails(result),
	})
	if err != nil {
		return models.MatchResult{}, err
	}
	return result, nil
}

func (s *Service) liveAllocations(ctx context.Context, txID uuid.UUID) ([]*models.PaymentAllocation, error) {
	all, err := s.allocations.ListByTransaction(ctx, txID)
	if err != nil {
		return nil, err
	}
	return liveEntries(all), nil
}

// liveEntries filters a ledger slice down to forward entries that no
// compensating entry points at.
func liveEntries(entries []*models.PaymentAllocation) []*models.PaymentAllocation {
	reversed := make(map[uuid.UUID]bool)
	for _, e := range entries {
		if e.ReversesID != nil {
			reversed[*e.ReversesID] = true
		}
	}
	live := make([]*models.PaymentAllocation, 0, len(entries))
	for _, e := range entries {
		if e.ReversesID == nil && !reversed[e.ID] {
			live = append(live, e)
		}
	}
	return live
}

func sumAllocations(entries []*models.PaymentAllocation) decimal.Decimal {
	sum := decimal.Zero
	for _, e := range entries {
		sum = sum.Add(e.Amount)
	}
	return sum
}

func excludePayments(candidates []*models.Payment, held []*models.PaymentAllocation) []*models.Payment {
	if len(held) == 0 {
		return candidates
	}
	taken := make(map[uuid.UUID]bool, len(held))
	for _, e := range held {
		taken[e.PaymentID] = true
	}
	out := make([]*models.Payment, 0, len(candidates))
	for _, p := range candidates {
		if !taken[p.ID] {
			out = append(out, p)
		}
	}
	return out
}

// transactionStatusFor derives the transaction status from its ledger
// total, the same way payment status derives from the paid amount.
func transactionStatusFor(abs, allocated decimal.Decimal) models.TransactionStatus {
	switch {
	case !allocated.IsPositive():
		return models.TransactionUnmatched
	case abs.Sub(allocated).LessThanOrEqual(ledger.RoundingTolerance):
		return models.TransactionMatched
	default:
		return models.TransactionPartiallyMatched
	}
}

func marshalDetails(result models.MatchResult) datatypes.JSON {
	b, err := json.Marshal(result)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}
