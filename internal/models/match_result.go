package models

import "github.com/google/uuid"

// MatchType labels which signal decided a match. Composite is used when no
// single strategy was decisive on its own.
type MatchType string

const (
	MatchNone           MatchType = ""
	MatchExact          MatchType = "exact"
	MatchFuzzy          MatchType = "fuzzy"
	MatchBankIdentifier MatchType = "bank_identifier"
	MatchDateWindow     MatchType = "date_window"
	MatchComposite      MatchType = "composite"
	MatchManual         MatchType = "manual"
	MatchAIAdvised      MatchType = "ai_advised"
)

// StrategyScores is the per-strategy breakdown behind a composite score.
// It is persisted as the transaction's match details so operators can see
// why the engine decided what it did.
type StrategyScores struct {
	Exact          float64 `json:"exact"`
	Fuzzy          float64 `json:"fuzzy"`
	BankIdentifier float64 `json:"bank_identifier"`
	DateWindow     float64 `json:"date_window"`
	Advisor        float64 `json:"advisor,omitempty"`
}

// MatchResult is the matcher's verdict for one transaction: the winning
// candidate (if any cleared the confidence threshold) and the full scoring
// breakdown for it.
type MatchResult struct {
	Matched    bool           `json:"matched"`
	PaymentID  uuid.UUID      `json:"payment_id,omitempty"`
	Confidence float64        `json:"confidence"`
	MatchType  MatchType      `json:"match_type,omitempty"`
	Scores     StrategyScores `json:"scores"`
	Candidates int            `json:"candidates"`
}
