package config

import (
	"os"

	"github.com/labstack/gommon/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const defaultDSN = "host=localhost user=postgres password=postgres dbname=reconciliation port=5432 sslmode=disable"

// InitDB opens the Postgres connection from DATABASE_URL, falling back to a
// local development DSN.
func InitDB() *gorm.DB {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = defaultDSN
		log.Warn("[Config] DATABASE_URL not set, using local default")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("[Config] cannot connect to database: %v", err)
	}
	return db
}
