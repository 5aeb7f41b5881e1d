package reconciliation

import (
	"context"

	"github.com/google/uuid"

	"bank-reconciliation-engine/internal/models"
)

// TransactionStore is the engine's view of the imported bank transactions.
// Implementations return ErrNotFound for unknown IDs. A uuid.Nil accountID
// means "all accounts".
type TransactionStore interface {
	GetTransaction(ctx context.Context, id uuid.UUID) (*models.BankTransaction, error)
	ListUnmatched(ctx context.Context, accountID uuid.UUID) ([]*models.BankTransaction, error)
	UpdateTransaction(ctx context.Context, tx *models.BankTransaction) error
	CountByStatus(ctx context.Context, accountID uuid.UUID) (map[models.TransactionStatus]int64, error)
}

// PaymentStore is the engine's view of the payment obligations.
//
// UpdatePayment must persist p only if the stored version still equals
// expectedVersion, and return ErrConcurrentModification otherwise; this is
// the optimistic check that keeps cross-process commits safe.
type PaymentStore interface {
	GetPayment(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	ListOpenCandidates(ctx context.Context, accountID uuid.UUID, currency string) ([]*models.Payment, error)
	UpdatePayment(ctx context.Context, p *models.Payment, expectedVersion int64) error
}

// AllocationStore persists the append-only allocation ledger. Entries are
// created, never updated or deleted; reversals arrive as new compensating
// entries.
type AllocationStore interface {
	CreateAllocation(ctx context.Context, a *models.PaymentAllocation) error
	GetAllocation(ctx context.Context, id uuid.UUID) (*models.PaymentAllocation, error)
	ListByPayment(ctx context.Context, paymentID uuid.UUID) ([]*models.PaymentAllocation, error)
	ListByTransaction(ctx context.Context, txID uuid.UUID) ([]*models.PaymentAllocation, error)
	ListAllocations(ctx context.Context) ([]*models.PaymentAllocation, error)
}

// RunStore records batch run bookkeeping. It is optional; without one the
// engine still reconciles, it just keeps no run history.
type RunStore interface {
	CreateRun(ctx context.Context, r *models.ReconciliationRun) error
	UpdateRun(ctx context.Context, r *models.ReconciliationRun) error
}
