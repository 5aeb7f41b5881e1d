package reconciliation

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bank-reconciliation-engine/internal/models"
)

func entry(amount string) *models.PaymentAllocation {
	return &models.PaymentAllocation{
		ID:            uuid.New(),
		TransactionID: uuid.New(),
		PaymentID:     uuid.New(),
		Amount:        decimal.RequireFromString(amount),
	}
}

func TestLiveEntriesFiltersReversedPairs(t *testing.T) {
	kept := entry("400")
	reverted := entry("600")
	comp := entry("-600")
	comp.ReversesID = &reverted.ID

	live := liveEntries([]*models.PaymentAllocation{reverted, kept, comp})

	require.Len(t, live, 1)
	assert.Equal(t, kept.ID, live[0].ID)
}

func TestLiveEntriesEmptyLedger(t *testing.T) {
	assert.Empty(t, liveEntries(nil))
}

func TestSumAllocationsIsSigned(t *testing.T) {
	forward := entry("1000")
	comp := entry("-1000")
	comp.ReversesID = &forward.ID
	partial := entry("400")

	sum := sumAllocations([]*models.PaymentAllocation{forward, comp, partial})

	assert.True(t, sum.Equal(decimal.RequireFromString("400")), "sum = %s", sum)
}

func TestTransactionStatusFor(t *testing.T) {
	cases := []struct {
		name      string
		abs       string
		allocated string
		want      models.TransactionStatus
	}{
		{"nothing allocated", "1000", "0", models.TransactionUnmatched},
		{"fully allocated", "1000", "1000", models.TransactionMatched},
		{"within rounding tolerance", "1000", "999.996", models.TransactionMatched},
		{"just outside tolerance", "1000", "999.99", models.TransactionPartiallyMatched},
		{"partial", "1500", "1000", models.TransactionPartiallyMatched},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := transactionStatusFor(decimal.RequireFromString(tc.abs), decimal.RequireFromString(tc.allocated))
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestExcludePayments(t *testing.T) {
	a := &models.Payment{ID: uuid.New()}
	b := &models.Payment{ID: uuid.New()}
	held := []*models.PaymentAllocation{{ID: uuid.New(), PaymentID: a.ID}}

	out := excludePayments([]*models.Payment{a, b}, held)

	require.Len(t, out, 1)
	assert.Equal(t, b.ID, out[0].ID)
}

func TestExcludePaymentsNothingHeld(t *testing.T) {
	a := &models.Payment{ID: uuid.New()}
	out := excludePayments([]*models.Payment{a}, nil)
	assert.Len(t, out, 1)
}
