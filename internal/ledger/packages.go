package ledger

import (
	"context"
	"errors"

	"github.com/excing/credits-starter-kit/internal/models"
	"gorm.io/gorm"
)

// CreatePackageInput captures the parameters of a new credit package.
type CreatePackageInput struct {
	Name        string
	Credits     int64
	Description string
}

// CreatePackage persists a new active credit package.
func (l *Ledger) CreatePackage(ctx context.Context, input CreatePackageInput) (*models.CreditPackage, error) {
	pkg := models.CreditPackage{
		Name:        input.Name,
		Credits:     input.Credits,
		Description: input.Description,
		IsActive:    true,
	}
	if errCreate := l.db.WithContext(ctx).Create(&pkg).Error; errCreate != nil {
		return nil, errCreate
	}
	return &pkg, nil
}

// ListPackages returns packages newest first, optionally including inactive ones.
func (l *Ledger) ListPackages(ctx context.Context, includeInactive bool) ([]models.CreditPackage, error) {
	q := l.db.WithContext(ctx).Model(&models.CreditPackage{})
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}
	var packages []models.CreditPackage
	if errFind := q.Order("created_at DESC, id DESC").Find(&packages).Error; errFind != nil {
		return nil, errFind
	}
	return packages, nil
}

// GetPackage looks up a package by ID.
func (l *Ledger) GetPackage(ctx context.Context, id uint64) (*models.CreditPackage, error) {
	var pkg models.CreditPackage
	if errFind := l.db.WithContext(ctx).First(&pkg, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrPackageUnavailable
		}
		return nil, errFind
	}
	return &pkg, nil
}

// UpdatePackageInput carries optional fields for a package update.
type UpdatePackageInput struct {
	Name        *string
	Credits     *int64
	Description *string
	IsActive    *bool
}

// UpdatePackage applies the provided fields to a package.
func (l *Ledger) UpdatePackage(ctx context.Context, id uint64, input UpdatePackageInput) (*models.CreditPackage, error) {
	updates := map[string]any{}
	if input.Name != nil {
		updates["name"] = *input.Name
	}
	if input.Credits != nil {
		updates["credits"] = *input.Credits
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if len(updates) > 0 {
		res := l.db.WithContext(ctx).
			Model(&models.CreditPackage{}).
			Where("id = ?", id).
			Updates(updates)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, ErrPackageUnavailable
		}
	}
	return l.GetPackage(ctx, id)
}
