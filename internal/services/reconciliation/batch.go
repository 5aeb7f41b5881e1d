package reconciliation

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"

	"bank-reconciliation-engine/internal/models"
)

// Report aggregates one batch run.
type Report struct {
	RunID             uuid.UUID `json:"run_id,omitempty"`
	TotalTransactions int       `json:"total_transactions"`
	MatchedCount      int       `json:"matched_count"`
	UnmatchedCount    int       `json:"unmatched_count"`
	ErrorCount        int       `json:"error_count"`
	AverageConfidence float64   `json:"average_confidence"`
}

// ReconcileBatch runs the matching pass over every unmatched transaction in
// scope (uuid.Nil means all accounts). Failures are isolated per
// transaction: logged, counted, skipped. Because each commit is
// self-contained the batch can be interrupted and rerun at any time;
// transactions already matched are no longer listed, so a rerun with no new
// transactions produces no new allocations.
func (s *Service) ReconcileBatch(ctx context.Context, accountID uuid.UUID) (Report, error) {
	txs, err := s.transactions.ListUnmatched(ctx, accountID)
	if err != nil {
		return Report{}, err
	}

	log.Infof("[Batch] reconciling %d unmatched transactions", len(txs))
	report := Report{TotalTransactions: len(txs)}
	run := s.startRun(ctx, accountID, len(txs))
	if run != nil {
		report.RunID = run.ID
	}

	var confidenceSum float64
	if s.workers <= 1 {
		for _, tx := range txs {
			if ctx.Err() != nil {
				break
			}
			s.processOne(ctx, tx, &report, &confidenceSum, nil)
		}
	} else {
		var mu sync.Mutex
		jobs := make(chan *models.BankTransaction)
		var wg sync.WaitGroup
		for w := 0; w < s.workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for tx := range jobs {
					s.processOne(ctx, tx, &report, &confidenceSum, &mu)
				}
			}()
		}
		for _, tx := range txs {
			if ctx.Err() != nil {
				break
			}
			jobs <- tx
		}
		close(jobs)
		wg.Wait()
	}

	if report.MatchedCount > 0 {
		report.AverageConfidence = confidenceSum / float64(report.MatchedCount)
	}
	s.finishRun(ctx, run, report, ctx.Err())
	log.Infof("[Batch] done: matched=%d unmatched=%d errors=%d",
		report.MatchedCount, report.UnmatchedCount, report.ErrorCount)
	return report, ctx.Err()
}

// processOne reconciles a single transaction and folds the outcome into the
// report. mu guards the counters when workers share them.
func (s *Service) processOne(ctx context.Context, tx *models.BankTransaction, report *Report, confidenceSum *float64, mu *sync.Mutex) {
	result, err := s.reconcile(ctx, tx)

	if mu != nil {
		mu.Lock()
		defer mu.Unlock()
	}
	switch {
	case err != nil:
		var adapterErr *ImportAdapterError
		if errors.As(err, &adapterErr) {
			log.Errorf("[Batch] transaction %s: %v", tx.ID, adapterErr)
		} else {
			log.Errorf("[Batch] transaction %s failed: %v", tx.ID, err)
		}
		report.ErrorCount++
	case result.Matched:
		report.MatchedCount++
		*confidenceSum += result.Confidence
	default:
		report.UnmatchedCount++
	}
}

func (s *Service) startRun(ctx context.Context, accountID uuid.UUID, total int) *models.ReconciliationRun {
	if s.runs == nil {
		return nil
	}
	run := &models.ReconciliationRun{
		ID:                uuid.New(),
		TotalTransactions: total,
		Status:            models.RunRunning,
		StartedAt:         s.now(),
		CreatedAt:         s.now(),
	}
	if accountID != uuid.Nil {
		id := accountID
		run.AccountID = &id
	}
	if err := s.runs.CreateRun(ctx, run); err != nil {
		log.Warnf("[Batch] could not record run: %v", err)
		return nil
	}
	return run
}

func (s *Service) finishRun(ctx context.Context, run *models.ReconciliationRun, report Report, cause error) {
	if run == nil {
		return
	}
	run.MatchedCount = report.MatchedCount
	run.UnmatchedCount = report.UnmatchedCount
	run.ErrorCount = report.ErrorCount
	run.AverageConfidence = report.AverageConfidence
	run.Status = models.RunCompleted
	if cause != nil {
		run.Status = models.RunFailed
	}
	done := s.now()
	run.CompletedAt = &done
	if err := s.runs.UpdateRun(ctx, run); err != nil {
		log.Warnf("[Batch] could not finalize run %s: %v", run.ID, err)
	}
}
