package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"bank-reconciliation-engine/internal/models"
	"bank-reconciliation-engine/internal/services/reconciliation"
)

// RunRepository persists batch run records.
type RunRepository struct {
	db *gorm.DB
}

var _ reconciliation.RunStore = (*RunRepository)(nil)

func NewRunRepository(db *gorm.DB) *RunRepository {
	return &RunRepository{db: db}
}

func (r *RunRepository) CreateRun(ctx context.Context, run *models.ReconciliationRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *RunRepository) UpdateRun(ctx context.Context, run *models.ReconciliationRun) error {
	res := r.db.WithContext(ctx).Model(&models.ReconciliationRun{}).
		Where("id = ?", run.ID).
		Updates(map[string]interface{}{
			"matched_count":      run.MatchedCount,
			"unmatched_count":    run.UnmatchedCount,
			"error_count":        run.ErrorCount,
			"average_confidence": run.AverageConfidence,
			"status":             run.Status,
			"completed_at":       run.CompletedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("run %s: %w", run.ID, reconciliation.ErrNotFound)
	}
	return nil
}
