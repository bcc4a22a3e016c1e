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

type CartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) *CartRepository {
	return &CartRepository{db: db}
}

// GetByUser retrieves a user's cart, or (nil, nil) when none exists
func (r *CartRepository) GetByUser(ctx context.Context, tenantID string, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND user_id = ?", tenantID, userID).
		First(&cart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cart, nil
}

// GetOrCreate returns the user's cart, creating an empty active one when
// missing. One cart per tenant/user pair.
func (r *CartRepository) GetOrCreate(ctx context.Context, tenantID string, userID uuid.UUID, userEmail string) (*models.Cart, error) {
	cart, err := r.GetByUser(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	if cart != nil {
		return cart, nil
	}

	cart = &models.Cart{
		TenantID:  tenantID,
		UserID:    userID,
		UserEmail: userEmail,
		Items:     models.CartLineList{},
		Status:    models.CartStatusActive,
	}
	if err := r.db.WithContext(ctx).Create(cart).Error; err != nil {
		return nil, err
	}
	return cart, nil
}

// Save writes back a loaded cart after line mutations
func (r *CartRepository) Save(ctx context.Context, tenantID string, cart *models.Cart) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", cart.ID, tenantID).
		Select("*").
		Omit("id", "tenant_id", "created_at").
		Updates(cart)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return &catalog.Error{Kind: catalog.ErrNotFound, Message: fmt.Sprintf("Cart not found: %s", cart.ID)}
	}
	return nil
}

// Delete removes a user's cart, typically after checkout
func (r *CartRepository) Delete(ctx context.Context, tenantID string, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("tenant_id = ? AND user_id = ?", tenantID, userID).
		Delete(&models.Cart{}).Error
}

// ListAbandoned returns non-empty active carts untouched since cutoff
// that have not yet hit the reminder cap
func (r *CartRepository) ListAbandoned(ctx context.Context, tenantID string, cutoff time.Time, maxReminders int) ([]models.Cart, error) {
	var carts []models.Cart
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND status = ? AND updated_at < ? AND reminder_count < ? AND jsonb_array_length(items) > 0",
			tenantID, models.CartStatusActive, cutoff, maxReminders).
		Find(&carts).Error
	return carts, err
}

// MarkReminded records a sent reminder
func (r *CartRepository) MarkReminded(ctx context.Context, tenantID string, cartID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ? AND tenant_id = ?", cartID, tenantID).
		Updates(map[string]interface{}{
			"status":             models.CartStatusReminded,
			"reminder_count":     gorm.Expr("reminder_count + 1"),
			"last_reminder_sent": at,
		}).Error
}

// MarkRecovered flags a cart whose owner came back after a reminder
func (r *CartRepository) MarkRecovered(ctx context.Context, tenantID string, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ? AND tenant_id = ? AND status = ?", cartID, tenantID, models.CartStatusReminded).
		Update("status", models.CartStatusRecovered).Error
}
