package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// TransactionStatus is the reconciliation lifecycle state of an imported
// bank transaction.
type TransactionStatus string

const (
	TransactionUnmatched        TransactionStatus = "unmatched"
	TransactionPartiallyMatched TransactionStatus = "partially_matched"
	TransactionMatched          TransactionStatus = "matched"
	TransactionIgnored          TransactionStatus = "ignored"
)

// BankTransaction is one imported bank statement line. The import adapter
// creates it (already de-duplicated); this engine only ever mutates the
// match-related fields, never the imported ones.
type BankTransaction struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey"`
	AccountID          uuid.UUID `gorm:"type:uuid;index"`
	TransactionDate    time.Time `gorm:"column:transaction_date;index"`
	Description        string
	Amount             decimal.Decimal `gorm:"type:numeric(14,2)"` // positive = incoming
	Currency           string          `gorm:"size:3;index"`
	ReferenceNumber    string
	CounterpartyName   string
	CounterpartyBankID string            `gorm:"column:counterparty_bank_id;index"`
	Status             TransactionStatus `gorm:"index"`
	MatchedPaymentID   *uuid.UUID        `gorm:"type:uuid"`
	ConfidenceScore    float64
	MatchType          MatchType
	MatchDetails       datatypes.JSON
	CreatedAt          time.Time
}

// AbsAmount returns the unsigned transaction amount. Allocations are always
// recorded against the absolute value.
func (t *BankTransaction) AbsAmount() decimal.Decimal {
	return t.Amount.Abs()
}

// Incoming reports whether the transaction credits the account.
func (t *BankTransaction) Incoming() bool {
	return t.Amount.IsPositive()
}

// Validate checks the fields this engine depends on. Import-side concerns
// (de-duplication, reference formats) are out of scope here.
func (t *BankTransaction) Validate() error {
	if t.ID == uuid.Nil {
		return &ValidationError{Entity: "transaction", Field: "id", Reason: "must be set"}
	}
	if t.TransactionDate.IsZero() {
		return &ValidationError{Entity: "transaction", Field: "transaction_date", Reason: "must be set"}
	}
	if t.Amount.IsZero() {
		return &ValidationError{Entity: "transaction", Field: "amount", Reason: "must be non-zero"}
	}
	if len(strings.TrimSpace(t.Currency)) != 3 {
		return &ValidationError{Entity: "transaction", Field: "currency", Reason: "must be a 3-letter code"}
	}
	return nil
}
