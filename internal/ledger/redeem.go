package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/excing/credits-starter-kit/internal/models"
	"gorm.io/gorm"
)

// RedeemResult reports a successful code redemption.
type RedeemResult struct {
	TransactionID uint64
	CreditsAdded  int64
	NewBalance    int64
}

// Redeem converts a redemption code into a credit grant for an account.
//
// Validations run in a fixed order and the first failure wins: existence,
// active flag, expiry, exhaustion, prior redemption by this account, package
// availability. On success the transaction insert, balance increment and
// counter increment commit as one unit. The counter increment is conditional
// on the cap, so two concurrent redemptions of a one-shot code cannot both
// succeed; the loser gets ErrCodeExhausted. The prior-redemption check is
// repeated inside the transaction and backstopped by the unique index on
// (user_id, reference_id, kind), so two concurrent redeems of the same code
// by one account cannot both insert under read committed either.
func (l *Ledger) Redeem(ctx context.Context, userID uint64, codeStr string) (RedeemResult, error) {
	code, errCode := l.GetCodeByString(ctx, codeStr)
	if errCode != nil {
		return RedeemResult{}, errCode
	}
	if !code.IsActive {
		return RedeemResult{}, ErrCodeInactive
	}
	if code.ExpiresAt != nil && code.ExpiresAt.Before(time.Now().UTC()) {
		return RedeemResult{}, ErrCodeExpired
	}
	if code.MaxRedemptions != nil && code.CurrentRedemptions >= *code.MaxRedemptions {
		return RedeemResult{}, ErrCodeExhausted
	}

	var prior int64
	if errCount := l.db.WithContext(ctx).
		Model(&models.CreditTransaction{}).
		Where("user_id = ? AND reference_id = ? AND kind = ?", userID, code.ID, models.TransactionKindRedemption).
		Count(&prior).Error; errCount != nil {
		return RedeemResult{}, errCount
	}
	if prior > 0 {
		return RedeemResult{}, ErrAlreadyRedeemed
	}

	var pkg models.CreditPackage
	if errPkg := l.db.WithContext(ctx).First(&pkg, code.PackageID).Error; errPkg != nil {
		if errors.Is(errPkg, gorm.ErrRecordNotFound) {
			return RedeemResult{}, ErrPackageUnavailable
		}
		return RedeemResult{}, errPkg
	}
	if !pkg.IsActive {
		return RedeemResult{}, ErrPackageUnavailable
	}

	var result RedeemResult
	errTx := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if errCount := tx.Model(&models.CreditTransaction{}).
			Where("user_id = ? AND reference_id = ? AND kind = ?", userID, code.ID, models.TransactionKindRedemption).
			Count(&existing).Error; errCount != nil {
			return errCount
		}
		if existing > 0 {
			return ErrAlreadyRedeemed
		}

		res := tx.Model(&models.RedemptionCode{}).
			Where("id = ? AND (max_redemptions IS NULL OR current_redemptions < max_redemptions)", code.ID).
			Update("current_redemptions", gorm.Expr("current_redemptions + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrCodeExhausted
		}

		codeID := code.ID
		row, errRow := appendTransaction(tx, transactionRow{
			userID:      userID,
			amount:      pkg.Credits,
			kind:        models.TransactionKindRedemption,
			referenceID: &codeID,
			description: fmt.Sprintf("Redeemed code %s - %s", code.Code, pkg.Name),
			metadata: map[string]any{
				"code_id":         code.ID,
				"code":            code.Code,
				"package_id":      pkg.ID,
				"package_name":    pkg.Name,
				"package_credits": pkg.Credits,
			},
		})
		if errRow != nil {
			// Lost the insert race; the unique index rejected the duplicate.
			if errors.Is(errRow, gorm.ErrDuplicatedKey) {
				return ErrAlreadyRedeemed
			}
			return errRow
		}
		result.TransactionID = row.ID

		resUser := tx.Model(&models.User{}).
			Where("id = ?", userID).
			Update("credit_balance", gorm.Expr("credit_balance + ?", pkg.Credits))
		if resUser.Error != nil {
			return resUser.Error
		}
		if resUser.RowsAffected == 0 {
			return ErrAccountNotFound
		}

		var user models.User
		if errFind := tx.Select("credit_balance").First(&user, userID).Error; errFind != nil {
			return errFind
		}
		result.CreditsAdded = pkg.Credits
		result.NewBalance = user.CreditBalance
		return nil
	})
	if errTx != nil {
		return RedeemResult{}, errTx
	}

	l.invalidate(ctx, userID)
	return result, nil
}
