package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"bank-reconciliation-engine/internal/models"
	"bank-reconciliation-engine/internal/services/reconciliation"
)

// PaymentRepository is the Postgres-backed payment store.
type PaymentRepository struct {
	db *gorm.DB
}

var _ reconciliation.PaymentStore = (*PaymentRepository)(nil)

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) GetPayment(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var p models.Payment
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("payment %s: %w", id, reconciliation.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListOpenCandidates returns payments still expecting money in the given
// currency: anything not fully paid, on the transaction's account or bound
// to no account at all, ordered by due date so the matcher's tie-break sees
// the closest due dates first.
func (r *PaymentRepository) ListOpenCandidates(ctx context.Context, accountID uuid.UUID, currency string) ([]*models.Payment, error) {
	var payments []*models.Payment
	q := r.db.WithContext(ctx).
		Where("status <> ?", models.PaymentPaid).
		Where("currency = ?", currency).
		Where("paid_amount < amount_due")
	if accountID != uuid.Nil {
		q = q.Where("account_id IN ?", []uuid.UUID{accountID, uuid.Nil})
	}
	err := q.Order("due_date ASC, id ASC").Find(&payments).Error
	return payments, err
}

// UpdatePayment writes the paid amount, status, and bumped version, guarded
// by an optimistic version check. A row that moved since it was read
// matches nothing and comes back as ErrConcurrentModification.
func (r *PaymentRepository) UpdatePayment(ctx context.Context, p *models.Payment, expectedVersion int64) error {
	res := r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("id = ? AND version = ?", p.ID, expectedVersion).
		Updates(map[string]interface{}{
			"paid_amount": p.PaidAmount,
			"status":      p.Status,
			"version":     p.Version,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("payment %s expected at version %d: %w",
			p.ID, expectedVersion, reconciliation.ErrConcurrentModification)
	}
	return nil
}
