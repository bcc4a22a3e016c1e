package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"storefront-service/internal/catalog"
	"storefront-service/internal/models"
)

type DiscountRepository struct {
	db *gorm.DB
}

func NewDiscountRepository(db *gorm.DB) *DiscountRepository {
	return &DiscountRepository{db: db}
}

// Create persists a discount after rejecting overlapping windows for the
// same scope. The check and the insert run inside one transaction; a
// concurrent create for the same scope can still slip between them at
// lower isolation levels, matching the known read-then-write hazard of
// the name-uniqueness probe.
func (r *DiscountRepository) Create(ctx context.Context, discount *models.Discount) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []models.Discount
		err := tx.Where("tenant_id = ? AND is_active = true", discount.TenantID).Find(&existing).Error
		if err != nil {
			return err
		}
		for i := range existing {
			if existing[i].SameScope(discount) && existing[i].Overlaps(discount.StartDate, discount.EndDate) {
				return &catalog.Error{
					Kind:    catalog.ErrValidation,
					Message: "An active discount already covers this scope and time window",
				}
			}
		}
		return tx.Create(discount).Error
	})
}

// GetByID retrieves a discount with tenant isolation
func (r *DiscountRepository) GetByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.Discount, error) {
	var discount models.Discount
	err := r.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", id, tenantID).First(&discount).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &catalog.Error{Kind: catalog.ErrNotFound, Message: fmt.Sprintf("Discount not found: %s", id)}
		}
		return nil, err
	}
	return &discount, nil
}

// List retrieves all discounts for a tenant, newest first
func (r *DiscountRepository) List(ctx context.Context, tenantID string) ([]models.Discount, error) {
	var discounts []models.Discount
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Find(&discounts).Error
	return discounts, err
}

// ListActiveAt returns the discounts whose window covers the instant
func (r *DiscountRepository) ListActiveAt(ctx context.Context, tenantID string, at time.Time) ([]models.Discount, error) {
	var discounts []models.Discount
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND is_active = true AND start_date <= ? AND end_date >= ?", tenantID, at, at).
		Find(&discounts).Error
	return discounts, err
}

// Deactivate switches a discount off without deleting its history
func (r *DiscountRepository) Deactivate(ctx context.Context, tenantID string, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&models.Discount{}).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return &catalog.Error{Kind: catalog.ErrNotFound, Message: fmt.Sprintf("Discount not found: %s", id)}
	}
	return nil
}

// Delete removes a discount
func (r *DiscountRepository) Delete(ctx context.Context, tenantID string, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Delete(&models.Discount{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return &catalog.Error{Kind: catalog.ErrNotFound, Message: fmt.Sprintf("Discount not found: %s", id)}
	}
	return nil
}
