// Package memory provides in-memory implementations of the reconciliation
// store interfaces for tests and local development. All stores are safe for
// concurrent use and hand out copies, never their internal state.
package memory

import (
	"github.com/google/uuid"

	"bank-reconciliation-engine/internal/models"
)

func copyTransaction(tx *models.BankTransaction) *models.BankTransaction {
	c := *tx
	if tx.MatchedPaymentID != nil {
		id := *tx.MatchedPaymentID
		c.MatchedPaymentID = &id
	}
	if tx.MatchDetails != nil {
		c.MatchDetails = append([]byte(nil), tx.MatchDetails...)
	}
	return &c
}

func copyPayment(p *models.Payment) *models.Payment {
	c := *p
	return &c
}

func copyAllocation(a *models.PaymentAllocation) *models.PaymentAllocation {
	c := *a
	if a.ReversesID != nil {
		id := *a.ReversesID
		c.ReversesID = &id
	}
	return &c
}

func copyRun(r *models.ReconciliationRun) *models.ReconciliationRun {
	c := *r
	if r.AccountID != nil {
		id := *r.AccountID
		c.AccountID = &id
	}
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}

func accountMatches(filter, owner uuid.UUID) bool {
	return filter == uuid.Nil || owner == filter
}
