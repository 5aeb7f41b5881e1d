package main

import (
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/labstack/gommon/log"

	"bank-reconciliation-engine/internal/config"
	"bank-reconciliation-engine/internal/models"
	"bank-reconciliation-engine/internal/routes"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Info("[Server] no .env file found, relying on system env")
	}

	cfg, err := config.LoadOrDefault(os.Getenv("RECONCILE_CONFIG"))
	if err != nil {
		log.Fatalf("[Server] %v", err)
	}

	db := config.InitDB()

	if err := db.AutoMigrate(
		&models.Payment{},
		&models.BankTransaction{},
		&models.PaymentAllocation{},
		&models.ReconciliationRun{},
	); err != nil {
		log.Fatalf("[Server] migrate: %v", err)
	}

	r := gin.Default()
	// CORS config
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, db, cfg)

	if err := r.Run(cfg.Server.Addr); err != nil {
		log.Fatalf("[Server] %v", err)
	}
}
