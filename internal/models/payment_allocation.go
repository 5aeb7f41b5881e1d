package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentAllocation records that part of a bank transaction's amount was
// applied against a payment. The ledger is append-only: a match reversal is
// recorded as a new entry with a negated amount pointing back at the entry
// it compensates, never as an update or delete.
type PaymentAllocation struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TransactionID uuid.UUID       `gorm:"type:uuid;index"`
	PaymentID     uuid.UUID       `gorm:"type:uuid;index"`
	Amount        decimal.Decimal `gorm:"type:numeric(14,2)"` // negative = compensating entry
	MatchType     MatchType
	Confidence    float64
	ReversesID    *uuid.UUID `gorm:"type:uuid"` // set only on compensating entries
	CreatedBy     string     // "engine" or an operator identity
	Note          string
	CreatedAt     time.Time `gorm:"index"`
}

// Reversal reports whether this entry compensates an earlier one.
func (a *PaymentAllocation) Reversal() bool {
	return a.ReversesID != nil
}

// Validate checks the shape of an entry before it is appended.
func (a *PaymentAllocation) Validate() error {
	if a.ID == uuid.Nil {
		return &ValidationError{Entity: "allocation", Field: "id", Reason: "must be set"}
	}
	if a.TransactionID == uuid.Nil {
		return &ValidationError{Entity: "allocation", Field: "transaction_id", Reason: "must be set"}
	}
	if a.PaymentID == uuid.Nil {
		return &ValidationError{Entity: "allocation", Field: "payment_id", Reason: "must be set"}
	}
	if a.Amount.IsZero() {
		return &ValidationError{Entity: "allocation", Field: "amount", Reason: "must not be zero"}
	}
	if a.ReversesID == nil && a.Amount.IsNegative() {
		return &ValidationError{Entity: "allocation", Field: "amount", Reason: "must be positive unless reversing"}
	}
	if a.ReversesID != nil && !a.Amount.IsNegative() {
		return &ValidationError{Entity: "allocation", Field: "amount", Reason: "must be negative when reversing"}
	}
	return nil
}
