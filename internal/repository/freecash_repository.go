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

type FreeCashRepository struct {
	db *gorm.DB
}

func NewFreeCashRepository(db *gorm.DB) *FreeCashRepository {
	return &FreeCashRepository{db: db}
}

// CreateBatch grants free cash to a set of users in one transaction
func (r *FreeCashRepository) CreateBatch(ctx context.Context, grants []models.FreeCash) error {
	if len(grants) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&grants).Error
}

// GetByID retrieves a grant with tenant isolation
func (r *FreeCashRepository) GetByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.FreeCash, error) {
	var grant models.FreeCash
	err := r.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", id, tenantID).First(&grant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &catalog.Error{Kind: catalog.ErrNotFound, Message: fmt.Sprintf("Free cash grant not found: %s", id)}
		}
		return nil, err
	}
	return &grant, nil
}

// List retrieves all grants for a tenant, newest first
func (r *FreeCashRepository) List(ctx context.Context, tenantID string, limit, offset int) ([]models.FreeCash, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.FreeCash{}).Where("tenant_id = ?", tenantID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var grants []models.FreeCash
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&grants).Error
	return grants, total, err
}

// ListUsableByUser returns a user's unused, unexpired grants in grant
// order. Candidates for checkout evaluation; the time window is checked
// by the evaluator, not here.
func (r *FreeCashRepository) ListUsableByUser(ctx context.Context, tenantID string, userID uuid.UUID) ([]models.FreeCash, error) {
	var grants []models.FreeCash
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND user_id = ? AND is_used = false AND is_expired = false", tenantID, userID).
		Order("created_at ASC").
		Find(&grants).Error
	return grants, err
}

// MarkUsed consumes a grant for an order. The update is conditional on
// the grant still being unused, so two concurrent checkouts cannot both
// spend it.
func (r *FreeCashRepository) MarkUsed(ctx context.Context, tenantID string, id, orderID uuid.UUID) error {
	now := time.Now().UTC()
	result := r.db.WithContext(ctx).
		Model(&models.FreeCash{}).
		Where("id = ? AND tenant_id = ? AND is_used = false", id, tenantID).
		Updates(map[string]interface{}{
			"is_used":    true,
			"is_applied": true,
			"used_date":  now,
			"order_id":   orderID,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return &catalog.Error{Kind: catalog.ErrValidation, Message: "Free cash grant already used"}
	}
	return nil
}

// SweepExpired flags grants whose window has passed. Run periodically;
// the evaluator also checks the window, so a missed sweep only delays
// the flag, not correctness.
func (r *FreeCashRepository) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.FreeCash{}).
		Where("is_expired = false AND end_date < ?", now).
		Update("is_expired", true)
	return result.RowsAffected, result.Error
}

// Delete removes an unused grant
func (r *FreeCashRepository) Delete(ctx context.Context, tenantID string, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ? AND is_used = false", id, tenantID).
		Delete(&models.FreeCash{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return &catalog.Error{Kind: catalog.ErrNotFound, Message: fmt.Sprintf("Free cash grant not found or already used: %s", id)}
	}
	return nil
}
