package models

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus is the lifecycle state of a reconciliation run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// ReconciliationRun summarizes one pass of the engine over a set of
// unmatched transactions. Runs are bookkeeping only; rerunning over the
// same transactions is always safe because matched ones are skipped.
type ReconciliationRun struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey"`
	AccountID         *uuid.UUID `gorm:"type:uuid;index"` // nil = all accounts
	TotalTransactions int
	MatchedCount      int
	UnmatchedCount    int
	ErrorCount        int
	AverageConfidence float64
	Status            RunStatus `gorm:"index"`
	StartedAt         time.Time
	CompletedAt       *time.Time
	CreatedAt         time.Time
}
