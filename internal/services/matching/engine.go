package matching

import (
	"context"
	"math"
	"sort"
	"time"

	"bank-reconciliation-engine/internal/models"
)

// Engine is the composite matcher. It scores every candidate payment with
// the four strategies (plus the optional advisor), combines the scores with
// the configured weights, and accepts the best candidate if it reaches the
// confidence threshold. Scoring is pure and safe to run concurrently; the
// engine holds no mutable state after construction.
type Engine struct {
	cfg        Config
	exact      ExactAmountStrategy
	fuzzy      FuzzyDescriptionStrategy
	bankID     BankIdentifierStrategy
	dateWindow DateWindowStrategy
	advisor    Advisor
}

// Option configures optional collaborators on the engine.
type Option func(*Engine)

// WithAdvisor wires an advisory source into the pipeline. It only has an
// effect when the advisor weight is non-zero.
func WithAdvisor(a Advisor) Option {
	return func(e *Engine) { e.advisor = a }
}

// NewEngine validates cfg and builds the strategy pipeline from it.
func NewEngine(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:        cfg,
		exact:      NewExactAmountStrategy(cfg.ExactToleranceDays),
		fuzzy:      NewFuzzyDescriptionStrategy(cfg.DescriptionThreshold, cfg.AmountThreshold),
		bankID:     NewBankIdentifierStrategy(),
		dateWindow: NewDateWindowStrategy(cfg.WindowDays),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns the tuning the engine was built with.
func (e *Engine) Config() Config { return e.cfg }

// Match evaluates every candidate for tx and returns the verdict. No
// candidate clearing the threshold is an expected outcome, reported as
// matched=false, never as an error. Given identical inputs and
// configuration the verdict is identical across runs.
func (e *Engine) Match(ctx context.Context, tx *models.BankTransaction, candidates []*models.Payment) models.MatchResult {
	result := models.MatchResult{Candidates: len(candidates)}
	if len(candidates) == 0 {
		return result
	}

	// Rank candidates up front: closest due date first, then lowest ID.
	// Strict best-score comparison below then resolves ties in rank order,
	// keeping the selection stable across runs.
	ranked := rankCandidates(tx.TransactionDate, candidates)

	advisorScores := e.adviseScores(ctx, tx, ranked)

	var (
		best       *models.Payment
		bestScore  = -1.0
		bestDetail models.StrategyScores
	)
	for _, p := range ranked {
		detail := models.StrategyScores{
			Exact:          safeScore(e.exact, tx, p),
			Fuzzy:          safeScore(e.fuzzy, tx, p),
			BankIdentifier: safeScore(e.bankID, tx, p),
			DateWindow:     safeScore(e.dateWindow, tx, p),
			Advisor:        advisorScores[p.ID.String()],
		}
		score := e.combine(detail)
		if score > bestScore {
			best, bestScore, bestDetail = p, score, detail
		}
	}

	result.Confidence = bestScore
	result.Scores = bestDetail
	if bestScore >= e.cfg.MinConfidence {
		result.Matched = true
		result.PaymentID = best.ID
		result.MatchType = e.decideType(bestDetail, bestScore)
	}
	return result
}

// combine folds a score breakdown into the weighted composite, rounded to
// four decimal places so threshold comparisons are not at the mercy of
// floating-point dust.
func (e *Engine) combine(sc models.StrategyScores) float64 {
	w := e.cfg.Weights
	sum := w.Exact*sc.Exact +
		w.Fuzzy*sc.Fuzzy +
		w.BankIdentifier*sc.BankIdentifier +
		w.DateWindow*sc.DateWindow +
		w.Advisor*sc.Advisor
	return round4(sum)
}

// decideType labels the accepted match by the signal that decided it. An
// advisor contribution the composite could not have cleared the threshold
// without takes precedence, so advisory influence is always visible in the
// ledger.
func (e *Engine) decideType(sc models.StrategyScores, composite float64) models.MatchType {
	if sc.Advisor > 0 && round4(composite-e.cfg.Weights.Advisor*sc.Advisor) < e.cfg.MinConfidence {
		return models.MatchAIAdvised
	}
	switch {
	case sc.Exact == 1:
		return models.MatchExact
	case sc.BankIdentifier == 1 && sc.Fuzzy == 0:
		return models.MatchBankIdentifier
	case sc.Fuzzy > 0 && sc.BankIdentifier == 0:
		return models.MatchFuzzy
	case sc.DateWindow == 1 && sc.Fuzzy == 0 && sc.BankIdentifier == 0:
		return models.MatchDateWindow
	default:
		return models.MatchComposite
	}
}

// adviseScores asks the advisor (when wired and weighted) for a suggestion
// and returns its capped confidence keyed by candidate ID. Advisor failure
// degrades the signal to nothing; it never aborts matching.
func (e *Engine) adviseScores(ctx context.Context, tx *models.BankTransaction, candidates []*models.Payment) map[string]float64 {
	if e.advisor == nil || e.cfg.Weights.Advisor == 0 {
		return nil
	}
	suggestion, err := e.advisor.Suggest(ctx, tx, candidates)
	if err != nil || !suggestion.Matched {
		return nil
	}
	conf := suggestion.Confidence
	if conf < 0 {
		return nil
	}
	if conf > e.cfg.AdvisorCap {
		conf = e.cfg.AdvisorCap
	}
	return map[string]float64{suggestion.PaymentID.String(): conf}
}

// rankCandidates orders candidates by due-date proximity to the transaction
// date, then by ID, without mutating the caller's slice.
func rankCandidates(txDate time.Time, candidates []*models.Payment) []*models.Payment {
	ranked := make([]*models.Payment, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		di := absDuration(ranked[i].DueDate.Sub(txDate))
		dj := absDuration(ranked[j].DueDate.Sub(txDate))
		if di != dj {
			return di < dj
		}
		return ranked[i].ID.String() < ranked[j].ID.String()
	})
	return ranked
}

// safeScore runs one strategy and degrades any internal failure to 0.0
// confidence instead of letting it take the batch down. Scores are clamped
// to [0,1].
func safeScore(s Strategy, tx *models.BankTransaction, p *models.Payment) (score float64) {
	defer func() {
		if r := recover(); r != nil {
			score = 0
		}
	}()
	score = s.Score(tx, p)
	switch {
	case math.IsNaN(score) || score < 0:
		return 0
	case score > 1:
		return 1
	}
	return score
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
