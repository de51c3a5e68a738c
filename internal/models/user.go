package models

import "time"

// User represents an account holding a credit balance.
type User struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Email        string `gorm:"type:text;not null;uniqueIndex"` // Login email.
	Name         string `gorm:"type:text"`                      // Display name.
	PasswordHash string `gorm:"type:text;not null"`             // Bcrypt password hash.

	// CreditBalance is mutated only through ledger primitives; every change
	// pairs with exactly one CreditTransaction row in the same transaction.
	CreditBalance int64 `gorm:"not null;default:0"`

	Disabled bool `gorm:"not null;default:false"` // Login disabled flag.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
