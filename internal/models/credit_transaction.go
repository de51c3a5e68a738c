package models

import (
	"time"

	"gorm.io/datatypes"
)

// Transaction kinds recorded in the ledger.
const (
	// TransactionKindUsage marks a debit for a billed operation.
	TransactionKindUsage = "usage"
	// TransactionKindRedemption marks a credit granted by a redemption code.
	TransactionKindRedemption = "redemption"
	// TransactionKindRefund marks the reversal of a redemption.
	TransactionKindRefund = "refund"
)

// CreditTransaction is one immutable entry in the append-only ledger.
// Rows are never updated or deleted after insertion.
type CreditTransaction struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID *uint64 `gorm:"index;uniqueIndex:uniq_account_reference_kind"` // Account, nullable if the user was removed.
	User   *User   `gorm:"foreignKey:UserID"`                            // Account record.
	Amount int64   `gorm:"not null"`                                     // Signed amount: negative = debit, positive = credit.
	Kind   string  `gorm:"type:text;not null;index;uniqueIndex:uniq_account_reference_kind"` // usage, redemption or refund.

	// ReferenceID links a redemption to its code ID and a refund to the
	// original transaction ID. The composite unique index over
	// (user_id, reference_id, kind) makes one redemption per account per code
	// and one refund per redemption a store-level guarantee; usage rows carry
	// a NULL reference and are exempt.
	ReferenceID *uint64 `gorm:"index;uniqueIndex:uniq_account_reference_kind"`

	Description string         `gorm:"type:text"`  // Human-readable summary.
	Metadata    datatypes.JSON `gorm:"type:jsonb"` // Open key/value bag.

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index"` // Creation timestamp.
}
