package ledger

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/excing/credits-starter-kit/internal/models"
	"gorm.io/gorm"
)

// codeAlphabet excludes ambiguous characters (0/O, 1/I/L).
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateCodeString produces a random XXXX-XXXX-XXXX redemption code.
func GenerateCodeString() string {
	var b strings.Builder
	for i := 0; i < 12; i++ {
		if i > 0 && i%4 == 0 {
			b.WriteByte('-')
		}
		idx, errRand := rand.Int(rand.Reader, big.NewInt(int64(len(codeAlphabet))))
		if errRand != nil {
			// crypto/rand only fails when the OS entropy source is broken.
			idx = big.NewInt(int64(i % len(codeAlphabet)))
		}
		b.WriteByte(codeAlphabet[idx.Int64()])
	}
	return b.String()
}

// CreateCodesInput captures the parameters of a code generation batch.
type CreateCodesInput struct {
	PackageID      uint64
	ExpiresAt      *time.Time
	MaxRedemptions *int
	Count          int
}

// CreateCodes generates between 1 and 100 codes for a package.
func (l *Ledger) CreateCodes(ctx context.Context, input CreateCodesInput, createdBy uint64) ([]models.RedemptionCode, error) {
	count := input.Count
	if count < 1 {
		count = 1
	}
	if count > 100 {
		count = 100
	}

	var pkg models.CreditPackage
	if errPkg := l.db.WithContext(ctx).First(&pkg, input.PackageID).Error; errPkg != nil {
		if errors.Is(errPkg, gorm.ErrRecordNotFound) {
			return nil, ErrPackageUnavailable
		}
		return nil, errPkg
	}

	creator := createdBy
	codes := make([]models.RedemptionCode, 0, count)
	for i := 0; i < count; i++ {
		codes = append(codes, models.RedemptionCode{
			Code:           GenerateCodeString(),
			PackageID:      input.PackageID,
			ExpiresAt:      input.ExpiresAt,
			MaxRedemptions: input.MaxRedemptions,
			IsActive:       true,
			CreatedBy:      &creator,
			CreatedAt:      time.Now().UTC(),
		})
	}
	if errCreate := l.db.WithContext(ctx).Create(&codes).Error; errCreate != nil {
		return nil, errCreate
	}
	return codes, nil
}

// CodeFilters narrows ListCodes results.
type CodeFilters struct {
	PackageID *uint64
	IsActive  *bool
}

// ListCodes returns codes newest first, optionally filtered.
func (l *Ledger) ListCodes(ctx context.Context, filters CodeFilters) ([]models.RedemptionCode, error) {
	q := l.db.WithContext(ctx).Model(&models.RedemptionCode{}).Preload("Package")
	if filters.PackageID != nil {
		q = q.Where("package_id = ?", *filters.PackageID)
	}
	if filters.IsActive != nil {
		q = q.Where("is_active = ?", *filters.IsActive)
	}

	var codes []models.RedemptionCode
	if errFind := q.Order("created_at DESC, id DESC").Find(&codes).Error; errFind != nil {
		return nil, errFind
	}
	return codes, nil
}

// GetCodeByString looks up a code by its displayable string.
func (l *Ledger) GetCodeByString(ctx context.Context, codeStr string) (*models.RedemptionCode, error) {
	normalized := strings.ToUpper(strings.TrimSpace(codeStr))
	if normalized == "" {
		return nil, ErrCodeNotFound
	}

	var code models.RedemptionCode
	if errFind := l.db.WithContext(ctx).
		Where("code = ?", normalized).
		First(&code).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrCodeNotFound
		}
		return nil, errFind
	}
	return &code, nil
}

// DeactivateCode disables a code so it can no longer be redeemed.
func (l *Ledger) DeactivateCode(ctx context.Context, codeID uint64) error {
	res := l.db.WithContext(ctx).
		Model(&models.RedemptionCode{}).
		Where("id = ?", codeID).
		Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrCodeNotFound
	}
	return nil
}

// Redemption describes one redemption of a code, with refund status.
type Redemption struct {
	TransactionID uint64
	UserID        *uint64
	UserEmail     string
	UserName      string
	Amount        int64
	Description   string
	CreatedAt     time.Time
	Refunded      bool
}

// RedemptionsByCode lists the redemption transactions referencing a code,
// newest first, each annotated with whether it has been refunded.
func (l *Ledger) RedemptionsByCode(ctx context.Context, codeID uint64) ([]Redemption, error) {
	var rows []models.CreditTransaction
	if errFind := l.db.WithContext(ctx).
		Preload("User").
		Where("reference_id = ? AND kind = ?", codeID, models.TransactionKindRedemption).
		Order("created_at DESC, id DESC").
		Find(&rows).Error; errFind != nil {
		return nil, errFind
	}
	if len(rows) == 0 {
		return []Redemption{}, nil
	}

	ids := make([]uint64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	var refunds []models.CreditTransaction
	if errFind := l.db.WithContext(ctx).
		Select("reference_id").
		Where("kind = ? AND reference_id IN ?", models.TransactionKindRefund, ids).
		Find(&refunds).Error; errFind != nil {
		return nil, errFind
	}
	refunded := make(map[uint64]struct{}, len(refunds))
	for _, refund := range refunds {
		if refund.ReferenceID != nil {
			refunded[*refund.ReferenceID] = struct{}{}
		}
	}

	out := make([]Redemption, 0, len(rows))
	for _, row := range rows {
		item := Redemption{
			TransactionID: row.ID,
			UserID:        row.UserID,
			Amount:        row.Amount,
			Description:   row.Description,
			CreatedAt:     row.CreatedAt,
		}
		if row.User != nil {
			item.UserEmail = row.User.Email
			item.UserName = row.User.Name
		}
		if _, ok := refunded[row.ID]; ok {
			item.Refunded = true
		}
		out = append(out, item)
	}
	return out, nil
}
