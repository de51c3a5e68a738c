package models

import "time"

// CreditPackage defines a purchasable or redeemable bundle of credits.
type CreditPackage struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Name        string `gorm:"type:text;not null"`     // Package display name.
	Credits     int64  `gorm:"not null"`               // Credits granted on redemption.
	Description string `gorm:"type:text"`              // Optional description.
	IsActive    bool   `gorm:"not null;default:true"`  // Whether codes for this package redeem.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
