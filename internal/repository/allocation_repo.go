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

// AllocationRepository is the Postgres-backed allocation ledger. Rows are
// only ever inserted; reverting appends a compensating row.
type AllocationRepository struct {
	db *gorm.DB
}

var _ reconciliation.AllocationStore = (*AllocationRepository)(nil)

func NewAllocationRepository(db *gorm.DB) *AllocationRepository {
	return &AllocationRepository{db: db}
}

func (r *AllocationRepository) CreateAllocation(ctx context.Context, a *models.PaymentAllocation) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *AllocationRepository) GetAllocation(ctx context.Context, id uuid.UUID) (*models.PaymentAllocation, error) {
	var a models.PaymentAllocation
	err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("allocation %s: %w", id, reconciliation.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AllocationRepository) ListByPayment(ctx context.Context, paymentID uuid.UUID) ([]*models.PaymentAllocation, error) {
	var entries []*models.PaymentAllocation
	err := r.db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		Order("created_at ASC").
		Find(&entries).Error
	return entries, err
}

func (r *AllocationRepository) ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]*models.PaymentAllocation, error) {
	var entries []*models.PaymentAllocation
	err := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		Order("created_at ASC").
		Find(&entries).Error
	return entries, err
}

func (r *AllocationRepository) ListAllocations(ctx context.Context) ([]*models.PaymentAllocation, error) {
	var entries []*models.PaymentAllocation
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&entries).Error
	return entries, err
}
