package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/excing/credits-starter-kit/internal/models"
	"gorm.io/gorm"
)

// RefundResult reports a successful refund of a redemption.
type RefundResult struct {
	TransactionID   uint64
	UserID          uint64
	CreditsDeducted int64
	NewBalance      int64
}

// Refund reverses a prior redemption: the account is debited by the
// originally granted amount and the code's redemption counter is decremented
// with a floor of zero.
//
// Only redemption transactions are refundable, and each at most once: a
// second attempt fails with ErrAlreadyRefunded rather than succeeding as a
// no-op. The refund debit is unconditional; undoing a grant must always
// apply even if the credits were already spent.
func (l *Ledger) Refund(ctx context.Context, transactionID uint64) (RefundResult, error) {
	var original models.CreditTransaction
	if errFind := l.db.WithContext(ctx).First(&original, transactionID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return RefundResult{}, ErrTransactionNotFound
		}
		return RefundResult{}, errFind
	}
	if original.Kind != models.TransactionKindRedemption {
		return RefundResult{}, ErrNotARedemption
	}
	if original.UserID == nil {
		return RefundResult{}, ErrAccountGone
	}
	userID := *original.UserID

	var result RefundResult
	errTx := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Re-checked inside the transaction so concurrent refunds of the
		// same redemption cannot both pass the gate.
		var existing int64
		if errCount := tx.Model(&models.CreditTransaction{}).
			Where("reference_id = ? AND kind = ?", transactionID, models.TransactionKindRefund).
			Count(&existing).Error; errCount != nil {
			return errCount
		}
		if existing > 0 {
			return ErrAlreadyRefunded
		}

		refID := transactionID
		row, errRow := appendTransaction(tx, transactionRow{
			userID:      userID,
			amount:      -original.Amount,
			kind:        models.TransactionKindRefund,
			referenceID: &refID,
			description: fmt.Sprintf("Refund - %s", original.Description),
			metadata: map[string]any{
				"original_transaction_id": transactionID,
			},
		})
		if errRow != nil {
			// The unique index on (user_id, reference_id, kind) rejects a
			// concurrent second refund that slipped past the count.
			if errors.Is(errRow, gorm.ErrDuplicatedKey) {
				return ErrAlreadyRefunded
			}
			return errRow
		}
		result.TransactionID = row.ID

		resUser := tx.Model(&models.User{}).
			Where("id = ?", userID).
			Update("credit_balance", gorm.Expr("credit_balance - ?", original.Amount))
		if resUser.Error != nil {
			return resUser.Error
		}
		if resUser.RowsAffected == 0 {
			return ErrAccountGone
		}

		// Counter decrement floors at zero even if counts were adjusted
		// manually; the conditional WHERE keeps it from going negative.
		if original.ReferenceID != nil {
			if errCode := tx.Model(&models.RedemptionCode{}).
				Where("id = ? AND current_redemptions > 0", *original.ReferenceID).
				Update("current_redemptions", gorm.Expr("current_redemptions - 1")).Error; errCode != nil {
				return errCode
			}
		}

		var user models.User
		if errFind := tx.Select("credit_balance").First(&user, userID).Error; errFind != nil {
			return errFind
		}
		result.UserID = userID
		result.CreditsDeducted = original.Amount
		result.NewBalance = user.CreditBalance
		return nil
	})
	if errTx != nil {
		return RefundResult{}, errTx
	}

	l.invalidate(ctx, userID)
	return result, nil
}
