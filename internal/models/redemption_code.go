package models

import "time"

// RedemptionCode is a user-enterable code granting a credit package once per account.
type RedemptionCode struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Code      string         `gorm:"type:text;not null;uniqueIndex"` // Displayable code string.
	PackageID uint64         `gorm:"not null;index"`                 // Granted credit package ID.
	Package   *CreditPackage `gorm:"foreignKey:PackageID"`           // Granted credit package.

	ExpiresAt          *time.Time // Expiration time, nil = never expires.
	MaxRedemptions     *int       // Redemption cap, nil = unlimited.
	CurrentRedemptions int        `gorm:"not null;default:0"` // Successful redemptions so far.

	IsActive bool `gorm:"not null;default:true"` // Whether the code can still be redeemed.

	CreatedBy *uint64   // Admin user who generated the code.
	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
}
