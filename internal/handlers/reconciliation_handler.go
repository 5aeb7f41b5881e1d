package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bank-reconciliation-engine/internal/models"
	"bank-reconciliation-engine/internal/services/ledger"
	"bank-reconciliation-engine/internal/services/reconciliation"
)

type ReconciliationHandler struct {
	service *reconciliation.Service
}

func NewReconciliationHandler(s *reconciliation.Service) *ReconciliationHandler {
	return &ReconciliationHandler{service: s}
}

// respondError maps service errors onto HTTP statuses: invalid input is the
// caller's fault, missing rows are 404, and conservation or version
// conflicts are 409 so clients know to re-read and retry.
func respondError(c *gin.Context, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
	case errors.Is(err, reconciliation.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ledger.ErrExceedsBalance),
		errors.Is(err, reconciliation.ErrConcurrentModification):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// accountScope reads an optional account_id query parameter; absent means
// all accounts.
func accountScope(c *gin.Context) (uuid.UUID, bool) {
	raw := c.Query("account_id")
	if raw == "" {
		return uuid.Nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account ID"})
		return uuid.Nil, false
	}
	return id, true
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ID"})
		return uuid.Nil, false
	}
	return id, true
}

// Run triggers a reconciliation pass over every unmatched transaction,
// optionally scoped with ?account_id=.
func (h *ReconciliationHandler) Run(c *gin.Context) {
	accountID, ok := accountScope(c)
	if !ok {
		return
	}
	report, err := h.service.ReconcileBatch(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// ReconcileTransaction runs the matcher over a single transaction.
func (h *ReconciliationHandler) ReconcileTransaction(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	result, err := h.service.ReconcileTransaction(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetTransaction returns a transaction with its allocation trail.
func (h *ReconciliationHandler) GetTransaction(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	tx, trail, err := h.service.Transaction(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction": tx, "allocations": trail})
}

func (h *ReconciliationHandler) ManualMatch(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var payload struct {
		PaymentID string           `json:"payment_id"`
		Amount    *decimal.Decimal `json:"amount"`
		Note      string           `json:"note"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	paymentID, err := uuid.Parse(payload.PaymentID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment ID"})
		return
	}

	alloc, err := h.service.MatchManual(c.Request.Context(), id, paymentID, payload.Amount, payload.Note)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "transaction manually matched", "allocation": alloc})
}

func (h *ReconciliationHandler) Unmatch(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.service.Unmatch(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "transaction unmatched"})
}

func (h *ReconciliationHandler) Ignore(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.service.Ignore(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "transaction ignored"})
}

func (h *ReconciliationHandler) Unignore(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.service.Unignore(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "transaction back in the matching pool"})
}

// RevertAllocation compensates a single ledger entry.
func (h *ReconciliationHandler) RevertAllocation(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.service.RevertAllocation(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "allocation reverted"})
}

// Allocations returns the audit trail, optionally filtered with
// ?payment_id=.
func (h *ReconciliationHandler) Allocations(c *gin.Context) {
	var paymentID *uuid.UUID
	if raw := c.Query("payment_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment ID"})
			return
		}
		paymentID = &id
	}
	trail, err := h.service.Audit(c.Request.Context(), paymentID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": trail})
}

func (h *ReconciliationHandler) Stats(c *gin.Context) {
	accountID, ok := accountScope(c)
	if !ok {
		return
	}
	stats, err := h.service.Stats(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
