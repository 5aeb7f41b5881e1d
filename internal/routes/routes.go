package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/labstack/gommon/log"
	"gorm.io/gorm"

	"bank-reconciliation-engine/internal/config"
	handler "bank-reconciliation-engine/internal/handlers"
	"bank-reconciliation-engine/internal/repository"
	"bank-reconciliation-engine/internal/services/matching"
	"bank-reconciliation-engine/internal/services/reconciliation"
)

func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg *config.Config) {
	transactionRepo := repository.NewBankTransactionRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	allocationRepo := repository.NewAllocationRepository(db)
	runRepo := repository.NewRunRepository(db)

	engine, err := matching.NewEngine(cfg.Matching)
	if err != nil {
		log.Fatalf("[Routes] matching config rejected: %v", err)
	}

	reconService := reconciliation.NewService(
		transactionRepo,
		paymentRepo,
		allocationRepo,
		engine,
		reconciliation.WithRunStore(runRepo),
		reconciliation.WithWorkers(cfg.Workers),
	)

	reconHandler := handler.NewReconciliationHandler(reconService)

	api := r.Group("/api")

	// Health check
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	recon := api.Group("/reconciliation")
	recon.POST("/run", reconHandler.Run)

	// Transaction-level routes
	tx := api.Group("/transactions")
	tx.GET("/:id", reconHandler.GetTransaction)
	tx.POST("/:id/reconcile", reconHandler.ReconcileTransaction)
	tx.POST("/:id/match", reconHandler.ManualMatch)
	tx.POST("/:id/unmatch", reconHandler.Unmatch)
	tx.POST("/:id/ignore", reconHandler.Ignore)
	tx.POST("/:id/unignore", reconHandler.Unignore)

	// Ledger routes
	allocations := api.Group("/allocations")
	allocations.GET("", reconHandler.Allocations)
	allocations.POST("/:id/revert", reconHandler.RevertAllocation)

	api.GET("/stats", reconHandler.Stats)
}
