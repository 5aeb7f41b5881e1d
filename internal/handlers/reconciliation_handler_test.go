package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bank-reconciliation-engine/internal/models"
	"bank-reconciliation-engine/internal/repository/memory"
	"bank-reconciliation-engine/internal/services/matching"
	"bank-reconciliation-engine/internal/services/reconciliation"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var base = time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type env struct {
	t      *testing.T
	txs    *memory.TransactionStore
	pays   *memory.PaymentStore
	allocs *memory.AllocationStore
	router *gin.Engine
}

// newEnv wires the handler against in-memory stores, with the same route
// shapes the server registers.
func newEnv(t *testing.T) *env {
	t.Helper()
	engine, err := matching.NewEngine(matching.DefaultConfig())
	require.NoError(t, err)

	e := &env{
		t:      t,
		txs:    memory.NewTransactionStore(),
		pays:   memory.NewPaymentStore(),
		allocs: memory.NewAllocationStore(),
	}
	svc := reconciliation.NewService(e.txs, e.pays, e.allocs, engine)
	h := NewReconciliationHandler(svc)

	r := gin.New()
	api := r.Group("/api")
	api.POST("/reconciliation/run", h.Run)
	api.GET("/transactions/:id", h.GetTransaction)
	api.POST("/transactions/:id/reconcile", h.ReconcileTransaction)
	api.POST("/transactions/:id/match", h.ManualMatch)
	api.POST("/transactions/:id/unmatch", h.Unmatch)
	api.POST("/transactions/:id/ignore", h.Ignore)
	api.POST("/transactions/:id/unignore", h.Unignore)
	api.GET("/allocations", h.Allocations)
	api.POST("/allocations/:id/revert", h.RevertAllocation)
	api.GET("/stats", h.Stats)
	e.router = r
	return e
}

func (e *env) request(method, target string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = strings.NewReader(string(raw))
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, into any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), into))
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	decode(t, w, &body)
	return body.Error
}

func (e *env) addPayment(client, invoice, amount string, due time.Time) *models.Payment {
	e.t.Helper()
	p := &models.Payment{
		ID:            uuid.New(),
		InvoiceID:     uuid.New(),
		InvoiceNumber: invoice,
		ClientName:    client,
		Currency:      "EUR",
		AmountDue:     dec(amount),
		DueDate:       due,
		Status:        models.PaymentUnpaid,
	}
	e.pays.Add(p)
	return p
}

func (e *env) addTransaction(desc, amount string, day time.Time) *models.BankTransaction {
	e.t.Helper()
	tx := &models.BankTransaction{
		ID:              uuid.New(),
		TransactionDate: day,
		Description:     desc,
		Amount:          dec(amount),
		Currency:        "EUR",
		Status:          models.TransactionUnmatched,
	}
	e.txs.Add(tx)
	return tx
}

func TestRunEndpoint(t *testing.T) {
	e := newEnv(t)
	e.addPayment("Acme Corp", "INV-1001", "1000", base)
	e.addTransaction("Acme Corp INV-1001", "1000", base)
	e.addTransaction("mystery wire", "77.31", base)

	w := e.request(http.MethodPost, "/api/reconciliation/run", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var report reconciliation.Report
	decode(t, w, &report)
	assert.Equal(t, 2, report.TotalTransactions)
	assert.Equal(t, 1, report.MatchedCount)
	assert.Equal(t, 1, report.UnmatchedCount)
	assert.Equal(t, 0, report.ErrorCount)
}

func TestRunEndpointRejectsBadAccountID(t *testing.T) {
	e := newEnv(t)

	w := e.request(http.MethodPost, "/api/reconciliation/run?account_id=not-a-uuid", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid account ID", errorBody(t, w))
}

func TestReconcileTransactionEndpoint(t *testing.T) {
	e := newEnv(t)
	p := e.addPayment("Acme Corp", "INV-1001", "1000", base)
	tx := e.addTransaction("Acme Corp INV-1001", "1000", base)

	w := e.request(http.MethodPost, "/api/transactions/"+tx.ID.String()+"/reconcile", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var result models.MatchResult
	decode(t, w, &result)
	assert.True(t, result.Matched)
	assert.Equal(t, p.ID, result.PaymentID)
	assert.Equal(t, models.MatchExact, result.MatchType)
}

func TestReconcileTransactionEndpointErrors(t *testing.T) {
	e := newEnv(t)

	w := e.request(http.MethodPost, "/api/transactions/"+uuid.NewString()+"/reconcile", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.request(http.MethodPost, "/api/transactions/nope/reconcile", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid ID", errorBody(t, w))
}

func TestGetTransactionEndpoint(t *testing.T) {
	e := newEnv(t)
	p := e.addPayment("Globex", "INV-8", "500", base)
	tx := e.addTransaction("wire ref 991", "500", base)

	w := e.request(http.MethodPost, "/api/transactions/"+tx.ID.String()+"/match",
		gin.H{"payment_id": p.ID.String()})
	require.Equal(t, http.StatusOK, w.Code)

	w = e.request(http.MethodGet, "/api/transactions/"+tx.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var page struct {
		Transaction models.BankTransaction     `json:"transaction"`
		Allocations []models.PaymentAllocation `json:"allocations"`
	}
	decode(t, w, &page)
	assert.Equal(t, models.TransactionMatched, page.Transaction.Status)
	require.Len(t, page.Allocations, 1)
	assert.Equal(t, p.ID, page.Allocations[0].PaymentID)

	w = e.request(http.MethodGet, "/api/transactions/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestManualMatchEndpoint(t *testing.T) {
	e := newEnv(t)
	p := e.addPayment("Globex", "INV-8", "500", base)
	tx := e.addTransaction("wire ref 991", "500", base)

	w := e.request(http.MethodPost, "/api/transactions/"+tx.ID.String()+"/match",
		gin.H{"payment_id": p.ID.String(), "note": "confirmed with ops"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Message    string                   `json:"message"`
		Allocation models.PaymentAllocation `json:"allocation"`
	}
	decode(t, w, &resp)
	assert.Equal(t, "transaction manually matched", resp.Message)
	assert.True(t, resp.Allocation.Amount.Equal(dec("500")))
	assert.Equal(t, "confirmed with ops", resp.Allocation.Note)

	settled, err := e.pays.GetPayment(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, settled.Status)
}

func TestManualMatchEndpointErrors(t *testing.T) {
	e := newEnv(t)
	p := e.addPayment("Globex", "INV-8", "500", base)
	tx := e.addTransaction("wire ref 991", "500", base)
	matchPath := "/api/transactions/" + tx.ID.String() + "/match"

	// Body that does not bind
	w := e.request(http.MethodPost, matchPath, []int{1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid payload", errorBody(t, w))

	w = e.request(http.MethodPost, matchPath, gin.H{"payment_id": "nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid payment ID", errorBody(t, w))

	w = e.request(http.MethodPost, "/api/transactions/"+uuid.NewString()+"/match",
		gin.H{"payment_id": p.ID.String()})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// More than the transaction carries
	w = e.request(http.MethodPost, matchPath,
		gin.H{"payment_id": p.ID.String(), "amount": "600"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestManualMatchEndpointCurrencyMismatch(t *testing.T) {
	e := newEnv(t)
	p := &models.Payment{
		ID:         uuid.New(),
		ClientName: "Initech",
		Currency:   "USD",
		AmountDue:  dec("500"),
		DueDate:    base,
		Status:     models.PaymentUnpaid,
	}
	e.pays.Add(p)
	tx := e.addTransaction("wire ref 991", "500", base)

	w := e.request(http.MethodPost, "/api/transactions/"+tx.ID.String()+"/match",
		gin.H{"payment_id": p.ID.String()})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, errorBody(t, w), "currency")
}

func TestLifecycleEndpoints(t *testing.T) {
	e := newEnv(t)
	p := e.addPayment("Globex", "INV-8", "500", base)
	tx := e.addTransaction("wire ref 991", "500", base)
	prefix := "/api/transactions/" + tx.ID.String()

	w := e.request(http.MethodPost, prefix+"/match", gin.H{"payment_id": p.ID.String()})
	require.Equal(t, http.StatusOK, w.Code)

	// Allocated transactions cannot be ignored
	w = e.request(http.MethodPost, prefix+"/ignore", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, errorBody(t, w), "unmatch")

	w = e.request(http.MethodPost, prefix+"/unmatch", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = e.request(http.MethodPost, prefix+"/ignore", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = e.request(http.MethodPost, prefix+"/unignore", nil)
	require.Equal(t, http.StatusOK, w.Code)

	got, err := e.txs.GetTransaction(context.Background(), tx.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionUnmatched, got.Status)
}

func TestRevertAllocationEndpoint(t *testing.T) {
	e := newEnv(t)
	p := e.addPayment("Globex", "INV-8", "500", base)
	tx := e.addTransaction("wire ref 991", "500", base)

	w := e.request(http.MethodPost, "/api/transactions/"+tx.ID.String()+"/match",
		gin.H{"payment_id": p.ID.String()})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Allocation models.PaymentAllocation `json:"allocation"`
	}
	decode(t, w, &resp)
	revertPath := "/api/allocations/" + resp.Allocation.ID.String() + "/revert"

	w = e.request(http.MethodPost, revertPath, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Reverting the same entry again fails
	w = e.request(http.MethodPost, revertPath, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, errorBody(t, w), "already reversed")

	var trail struct {
		Items []models.PaymentAllocation `json:"items"`
	}
	w = e.request(http.MethodGet, "/api/allocations?payment_id="+p.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &trail)
	require.Len(t, trail.Items, 2)
	assert.True(t, trail.Items[1].Reversal())
}

func TestAllocationsEndpointFilters(t *testing.T) {
	e := newEnv(t)
	p1 := e.addPayment("Globex", "INV-8", "500", base)
	p2 := e.addPayment("Initech", "INV-9", "300", base)
	tx1 := e.addTransaction("wire ref 991", "500", base)
	tx2 := e.addTransaction("wire ref 992", "300", base)

	w := e.request(http.MethodPost, "/api/transactions/"+tx1.ID.String()+"/match",
		gin.H{"payment_id": p1.ID.String()})
	require.Equal(t, http.StatusOK, w.Code)
	w = e.request(http.MethodPost, "/api/transactions/"+tx2.ID.String()+"/match",
		gin.H{"payment_id": p2.ID.String()})
	require.Equal(t, http.StatusOK, w.Code)

	var trail struct {
		Items []models.PaymentAllocation `json:"items"`
	}
	w = e.request(http.MethodGet, "/api/allocations", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &trail)
	assert.Len(t, trail.Items, 2)

	w = e.request(http.MethodGet, "/api/allocations?payment_id="+p2.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &trail)
	require.Len(t, trail.Items, 1)
	assert.Equal(t, p2.ID, trail.Items[0].PaymentID)

	w = e.request(http.MethodGet, "/api/allocations?payment_id=nope", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStatsEndpoint(t *testing.T) {
	e := newEnv(t)
	p := e.addPayment("Globex", "INV-8", "500", base)
	tx := e.addTransaction("wire ref 991", "500", base)
	e.addTransaction("mystery wire", "77.31", base)
	noise := e.addTransaction("atm fee", "3.50", base)

	w := e.request(http.MethodPost, "/api/transactions/"+tx.ID.String()+"/match",
		gin.H{"payment_id": p.ID.String()})
	require.Equal(t, http.StatusOK, w.Code)
	w = e.request(http.MethodPost, "/api/transactions/"+noise.ID.String()+"/ignore", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = e.request(http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var stats reconciliation.Stats
	decode(t, w, &stats)
	assert.Equal(t, int64(1), stats.Matched)
	assert.Equal(t, int64(1), stats.Unmatched)
	assert.Equal(t, int64(1), stats.Ignored)
}
