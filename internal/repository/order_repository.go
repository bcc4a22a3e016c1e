package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"storefront-service/internal/catalog"
	"storefront-service/internal/models"
)

type OrderRepository struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewOrderRepository(db *gorm.DB, redis *redis.Client) *OrderRepository {
	return &OrderRepository{
		db:    db,
		redis: redis,
	}
}

func (r *OrderRepository) invalidateCaches(ctx context.Context, tenantID string) {
	if r.redis == nil {
		return
	}
	pattern := fmt.Sprintf("storefront:orders:list:%s:*", tenantID)
	keys, _ := r.redis.Keys(ctx, pattern).Result()
	if len(keys) > 0 {
		r.redis.Del(ctx, keys...)
	}
}

// Create persists a new order
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	err := r.db.WithContext(ctx).Create(order).Error
	if err == nil {
		r.invalidateCaches(ctx, order.TenantID)
	}
	return err
}

// GetByID retrieves an order with tenant isolation
// SECURITY: Always requires tenantID to prevent cross-tenant access
func (r *OrderRepository) GetByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", id, tenantID).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &catalog.Error{Kind: catalog.ErrNotFound, Message: fmt.Sprintf("Order not found: %s", id)}
		}
		return nil, err
	}
	return &order, nil
}

// List retrieves orders for a tenant, optionally filtered by status,
// newest first
func (r *OrderRepository) List(ctx context.Context, tenantID string, status *models.OrderStatus, limit, offset int) ([]models.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{}).Where("tenant_id = ?", tenantID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&orders).Error
	return orders, total, err
}

// ListByUser retrieves a storefront user's own orders, newest first
func (r *OrderRepository) ListByUser(ctx context.Context, tenantID string, userID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND user_id = ?", tenantID, userID).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

// Update writes back a loaded order after mutation
func (r *OrderRepository) Update(ctx context.Context, tenantID string, order *models.Order) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", order.ID, tenantID).
		Select("*").
		Omit("id", "tenant_id", "created_at").
		Updates(order)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return &catalog.Error{Kind: catalog.ErrNotFound, Message: fmt.Sprintf("Order not found: %s", order.ID)}
	}
	r.invalidateCaches(ctx, tenantID)
	return nil
}

// DeleteOlderThan removes orders whose creation date predates cutoff.
// Used by the retention sweep; terminal and live orders alike are purged
// once they age out.
func (r *OrderRepository) DeleteOlderThan(ctx context.Context, tenantID string, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND created_at < ?", tenantID, cutoff).
		Delete(&models.Order{})
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected > 0 {
		r.invalidateCaches(ctx, tenantID)
	}
	return result.RowsAffected, nil
}
