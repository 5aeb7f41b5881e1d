package matching

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"bank-reconciliation-engine/internal/models"
)

// Strategy scores one transaction-payment pairing in [0,1]. Implementations
// are pure and stateless: no I/O, no shared mutable state, safe to call from
// concurrent workers.
type Strategy interface {
	Name() string
	Type() models.MatchType
	Score(tx *models.BankTransaction, p *models.Payment) float64
}

// ExactAmountStrategy fires only on a perfect hit: the transaction amount
// equals the outstanding balance and the transaction date lands within the
// tolerance window of the due date. It never gives partial credit.
type ExactAmountStrategy struct {
	ToleranceDays int
}

func NewExactAmountStrategy(toleranceDays int) ExactAmountStrategy {
	return ExactAmountStrategy{ToleranceDays: toleranceDays}
}

func (s ExactAmountStrategy) Name() string           { return "exact_amount" }
func (s ExactAmountStrategy) Type() models.MatchType { return models.MatchExact }

func (s ExactAmountStrategy) Score(tx *models.BankTransaction, p *models.Payment) float64 {
	if !tx.AbsAmount().Equal(p.Outstanding()) {
		return 0
	}
	if daysApart(tx.TransactionDate, p.DueDate) > s.ToleranceDays {
		return 0
	}
	return 1
}

// FuzzyDescriptionStrategy compares the transaction description against the
// payment's client/invoice label. The similarity becomes the score once it
// clears the description threshold and the amount does not overshoot the
// outstanding balance; partial payments below the balance always pass the
// amount gate.
type FuzzyDescriptionStrategy struct {
	DescriptionThreshold float64
	AmountThreshold      float64
}

func NewFuzzyDescriptionStrategy(descriptionThreshold, amountThreshold float64) FuzzyDescriptionStrategy {
	return FuzzyDescriptionStrategy{
		DescriptionThreshold: descriptionThreshold,
		AmountThreshold:      amountThreshold,
	}
}

func (s FuzzyDescriptionStrategy) Name() string           { return "fuzzy_description" }
func (s FuzzyDescriptionStrategy) Type() models.MatchType { return models.MatchFuzzy }

func (s FuzzyDescriptionStrategy) Score(tx *models.BankTransaction, p *models.Payment) float64 {
	if strings.TrimSpace(tx.Description) == "" {
		return 0
	}
	sim := Similarity(tx.Description, p.MatchLabel())
	if sim < s.DescriptionThreshold {
		return 0
	}
	if !amountCompatible(tx.AbsAmount(), p.Outstanding(), s.AmountThreshold) {
		return 0
	}
	return sim
}

// amountCompatible rejects only overshoot: amount*threshold must not exceed
// the outstanding balance, so with the default 0.95 a transaction may run
// about 5% over before the fuzzy signal is discarded.
func amountCompatible(amount, outstanding decimal.Decimal, threshold float64) bool {
	return amount.Mul(decimal.NewFromFloat(threshold)).LessThanOrEqual(outstanding)
}

// BankIdentifierStrategy fires when the transaction's counterparty bank
// identifier equals one on file for the payment's client, ignoring case and
// surrounding whitespace. A missing identifier on either side is never a
// partial match.
type BankIdentifierStrategy struct{}

func NewBankIdentifierStrategy() BankIdentifierStrategy { return BankIdentifierStrategy{} }

func (s BankIdentifierStrategy) Name() string           { return "bank_identifier" }
func (s BankIdentifierStrategy) Type() models.MatchType { return models.MatchBankIdentifier }

func (s BankIdentifierStrategy) Score(tx *models.BankTransaction, p *models.Payment) float64 {
	id := strings.TrimSpace(tx.CounterpartyBankID)
	if id == "" {
		return 0
	}
	for _, onFile := range p.BankIdentifiers() {
		if strings.EqualFold(id, onFile) {
			return 1
		}
	}
	return 0
}

// DateWindowStrategy is a weak corroborating signal: 1 when the transaction
// date falls within the window around the due date, 0 otherwise.
type DateWindowStrategy struct {
	WindowDays int
}

func NewDateWindowStrategy(windowDays int) DateWindowStrategy {
	return DateWindowStrategy{WindowDays: windowDays}
}

func (s DateWindowStrategy) Name() string           { return "date_window" }
func (s DateWindowStrategy) Type() models.MatchType { return models.MatchDateWindow }

func (s DateWindowStrategy) Score(tx *models.BankTransaction, p *models.Payment) float64 {
	if daysApart(tx.TransactionDate, p.DueDate) > s.WindowDays {
		return 0
	}
	return 1
}

// daysApart is the calendar-day distance between two instants, ignoring the
// time of day.
func daysApart(a, b time.Time) int {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	days := int(da.Sub(db).Hours() / 24)
	if days < 0 {
		days = -days
	}
	return days
}
