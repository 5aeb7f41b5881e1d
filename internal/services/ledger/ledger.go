// Package ledger holds the only two operations allowed to move a payment's
// paid amount. Every call must be paired with a PaymentAllocation write (or
// compensating entry) by the caller so that the ledger sum and the paid
// amount never drift apart.
package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"bank-reconciliation-engine/internal/models"
)

var (
	// ErrExceedsBalance rejects an allocation that would push the paid
	// amount above the total due beyond the rounding tolerance.
	ErrExceedsBalance = errors.New("allocation exceeds outstanding balance")

	// ErrNegativePaid rejects a reversal that would take the paid amount
	// below zero.
	ErrNegativePaid = errors.New("paid amount would go negative")

	// ErrNonPositiveAmount rejects zero or negative movement amounts.
	ErrNonPositiveAmount = errors.New("amount must be positive")
)

// RoundingTolerance is the band within which two monetary amounts are
// treated as equal. Imported statements occasionally disagree with invoices
// by a fraction of a cent.
var RoundingTolerance = decimal.RequireFromString("0.005")

// Apply increases the payment's paid amount and recomputes its status.
func Apply(p *models.Payment, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("apply %s to payment %s: %w", amount, p.ID, ErrNonPositiveAmount)
	}
	newPaid := p.PaidAmount.Add(amount)
	if newPaid.Sub(p.AmountDue).GreaterThan(RoundingTolerance) {
		return fmt.Errorf("apply %s to payment %s (paid %s of %s): %w",
			amount, p.ID, p.PaidAmount, p.AmountDue, ErrExceedsBalance)
	}
	p.PaidAmount = newPaid
	p.Status = StatusFor(newPaid, p.AmountDue)
	return nil
}

// Revert decreases the paid amount by a previously applied allocation and
// recomputes the status.
func Revert(p *models.Payment, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("revert %s on payment %s: %w", amount, p.ID, ErrNonPositiveAmount)
	}
	newPaid := p.PaidAmount.Sub(amount)
	if newPaid.Neg().GreaterThan(RoundingTolerance) {
		return fmt.Errorf("revert %s on payment %s (paid %s): %w",
			amount, p.ID, p.PaidAmount, ErrNegativePaid)
	}
	if newPaid.IsNegative() {
		newPaid = decimal.Zero
	}
	p.PaidAmount = newPaid
	p.Status = StatusFor(newPaid, p.AmountDue)
	return nil
}

// StatusFor derives the payment status from paid vs. total. Status is never
// stored independently of the amounts.
func StatusFor(paid, total decimal.Decimal) models.PaymentStatus {
	switch {
	case !paid.IsPositive():
		return models.PaymentUnpaid
	case total.Sub(paid).LessThanOrEqual(RoundingTolerance):
		return models.PaymentPaid
	default:
		return models.PaymentPartiallyPaid
	}
}
