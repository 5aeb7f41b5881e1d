package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus reflects how much of a payment obligation has been settled.
// It is always derived from paid vs. total, never set directly.
type PaymentStatus string

const (
	PaymentUnpaid        PaymentStatus = "unpaid"
	PaymentPartiallyPaid PaymentStatus = "partially_paid"
	PaymentPaid          PaymentStatus = "paid"
)

// Payment is a single invoice installment obligation. Invoice issuance
// creates it; this engine mutates PaidAmount and Status exclusively through
// the ledger operations, paired with allocation writes.
//
// ClientName, InvoiceNumber and ClientBankIDs are denormalized from the
// invoice so the matchers can score a candidate without a join.
type Payment struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	InvoiceID     uuid.UUID       `gorm:"type:uuid;index"`
	InvoiceNumber string          `gorm:"index"`
	ClientName    string          `gorm:"index"`
	ClientBankIDs string          // semicolon-separated identifiers on file
	AccountID     uuid.UUID       `gorm:"type:uuid;index"` // expected receiving account; Nil = any
	Currency      string          `gorm:"size:3;index"`
	AmountDue     decimal.Decimal `gorm:"type:numeric(14,2)"` // immutable after creation
	PaidAmount    decimal.Decimal `gorm:"type:numeric(14,2)"`
	DueDate       time.Time       `gorm:"index"`
	Status        PaymentStatus   `gorm:"index"`
	Version       int64           // bumped on every paid-amount commit
	CreatedAt     time.Time
}

// Outstanding returns the amount still owed on this payment.
func (p *Payment) Outstanding() decimal.Decimal {
	return p.AmountDue.Sub(p.PaidAmount)
}

// MatchLabel composes the text the fuzzy matcher compares transaction
// descriptions against.
func (p *Payment) MatchLabel() string {
	return strings.TrimSpace(p.ClientName + " " + p.InvoiceNumber)
}

// BankIdentifiers returns the client bank identifiers on file, trimmed,
// empty entries dropped.
func (p *Payment) BankIdentifiers() []string {
	if strings.TrimSpace(p.ClientBankIDs) == "" {
		return nil
	}
	parts := strings.Split(p.ClientBankIDs, ";")
	ids := make([]string, 0, len(parts))
	for _, part := range parts {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// Validate checks the invariants issuance must have established.
func (p *Payment) Validate() error {
	if p.ID == uuid.Nil {
		return &ValidationError{Entity: "payment", Field: "id", Reason: "must be set"}
	}
	if !p.AmountDue.IsPositive() {
		return &ValidationError{Entity: "payment", Field: "amount_due", Reason: "must be positive"}
	}
	if p.PaidAmount.IsNegative() {
		return &ValidationError{Entity: "payment", Field: "paid_amount", Reason: "must not be negative"}
	}
	if p.DueDate.IsZero() {
		return &ValidationError{Entity: "payment", Field: "due_date", Reason: "must be set"}
	}
	if len(strings.TrimSpace(p.Currency)) != 3 {
		return &ValidationError{Entity: "payment", Field: "currency", Reason: "must be a 3-letter code"}
	}
	return nil
}
