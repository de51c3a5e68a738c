package db

import (
	"fmt"

	"github.com/excing/credits-starter-kit/internal/models"
	"gorm.io/gorm"
)

// Migrate applies the schema for all ledger models.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	return conn.AutoMigrate(
		&models.User{},
		&models.CreditPackage{},
		&models.RedemptionCode{},
		&models.CreditTransaction{},
	)
}
