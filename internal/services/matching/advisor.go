package matching

import (
	"context"

	"bank-reconciliation-engine/internal/models"
)

// Advisor is an optional narrative-analysis collaborator that may suggest a
// candidate for a transaction. The engine treats the suggestion as one more
// signal: it contributes at the configured advisor weight, its confidence is
// capped, and a match it was decisive for is tagged as AI-advised in the
// ledger. The engine works identically when no advisor is wired in.
type Advisor interface {
	Suggest(ctx context.Context, tx *models.BankTransaction, candidates []*models.Payment) (models.MatchResult, error)
}
