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

// BankTransactionRepository is the Postgres-backed transaction store.
type BankTransactionRepository struct {
	db *gorm.DB
}

var _ reconciliation.TransactionStore = (*BankTransactionRepository)(nil)

func NewBankTransactionRepository(db *gorm.DB) *BankTransactionRepository {
	return &BankTransactionRepository{db: db}
}

func (r *BankTransactionRepository) GetTransaction(ctx context.Context, id uuid.UUID) (*models.BankTransaction, error) {
	var tx models.BankTransaction
	err := r.db.WithContext(ctx).First(&tx, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("transaction %s: %w", id, reconciliation.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// ListUnmatched returns unmatched transactions in statement order, oldest
// first, so batch runs process them the way they arrived.
func (r *BankTransactionRepository) ListUnmatched(ctx context.Context, accountID uuid.UUID) ([]*models.BankTransaction, error) {
	var txs []*models.BankTransaction
	q := r.db.WithContext(ctx).Where("status = ?", models.TransactionUnmatched)
	if accountID != uuid.Nil {
		q = q.Where("account_id = ?", accountID)
	}
	err := q.Order("transaction_date ASC, id ASC").Find(&txs).Error
	return txs, err
}

// UpdateTransaction persists the match-related fields only; imported
// statement data is never rewritten.
func (r *BankTransactionRepository) UpdateTransaction(ctx context.Context, tx *models.BankTransaction) error {
	res := r.db.WithContext(ctx).Model(&models.BankTransaction{}).
		Where("id = ?", tx.ID).
		Updates(map[string]interface{}{
			"status":             tx.Status,
			"matched_payment_id": tx.MatchedPaymentID,
			"confidence_score":   tx.ConfidenceScore,
			"match_type":         tx.MatchType,
			"match_details":      tx.MatchDetails,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("transaction %s: %w", tx.ID, reconciliation.ErrNotFound)
	}
	return nil
}

func (r *BankTransactionRepository) CountByStatus(ctx context.Context, accountID uuid.UUID) (map[models.TransactionStatus]int64, error) {
	var rows []struct {
		Status models.TransactionStatus
		Count  int64
	}
	q := r.db.WithContext(ctx).Model(&models.BankTransaction{}).
		Select("status, COUNT(*) AS count").
		Group("status")
	if accountID != uuid.Nil {
		q = q.Where("account_id = ?", accountID)
	}
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[models.TransactionStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
