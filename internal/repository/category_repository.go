package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"storefront-service/internal/catalog"
	"storefront-service/internal/models"
)

// Cache TTL constants
const (
	CategoryCacheTTL     = 30 * time.Minute // Categories rarely change
	CategoryListCacheTTL = 15 * time.Minute // Category lists and trees
)

type CategoryRepository struct {
	db    *gorm.DB
	redis *redis.Client
}

// CategoryRepository satisfies the import pipeline's category lookups.
var _ catalog.CategoryStore = (*CategoryRepository)(nil)

func NewCategoryRepository(db *gorm.DB, redis *redis.Client) *CategoryRepository {
	return &CategoryRepository{
		db:    db,
		redis: redis,
	}
}

// invalidateCaches invalidates all category caches for a tenant
func (r *CategoryRepository) invalidateCaches(ctx context.Context, tenantID string, categoryID *uuid.UUID) {
	if r.redis == nil {
		return
	}

	if categoryID != nil {
		r.redis.Del(ctx, fmt.Sprintf("storefront:categories:category:%s:%s", tenantID, categoryID))
	}
	pattern := fmt.Sprintf("storefront:categories:list:%s:*", tenantID)
	keys, _ := r.redis.Keys(ctx, pattern).Result()
	if len(keys) > 0 {
		r.redis.Del(ctx, keys...)
	}
}

// Create creates a new category
func (r *CategoryRepository) Create(ctx context.Context, category *models.Category) error {
	err := r.db.WithContext(ctx).Create(category).Error
	if err == nil {
		r.invalidateCaches(ctx, category.TenantID, nil)
	}
	return err
}

// ByID retrieves a category by ID with tenant isolation and caching
// SECURITY: Always requires tenantID to prevent cross-tenant access
func (r *CategoryRepository) ByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.Category, error) {
	cacheKey := fmt.Sprintf("storefront:categories:category:%s:%s", tenantID, id)

	if r.redis != nil {
		val, err := r.redis.Get(ctx, cacheKey).Result()
		if err == nil {
			var category models.Category
			if err := json.Unmarshal([]byte(val), &category); err == nil {
				return &category, nil
			}
		}
	}

	var category models.Category
	err := r.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", id, tenantID).First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &catalog.Error{Kind: catalog.ErrNotFound, Message: fmt.Sprintf("Category not found: %s", id)}
		}
		return nil, err
	}

	if r.redis != nil {
		if data, err := json.Marshal(category); err == nil {
			r.redis.Set(ctx, cacheKey, data, CategoryCacheTTL)
		}
	}
	return &category, nil
}

// ByName resolves a category by case-insensitive exact name. rootOnly
// restricts the match to top-level categories.
func (r *CategoryRepository) ByName(ctx context.Context, tenantID, name string, rootOnly bool) (*models.Category, error) {
	query := r.db.WithContext(ctx).
		Where("tenant_id = ? AND LOWER(name) = LOWER(?)", tenantID, name)
	if rootOnly {
		query = query.Where("parent_id IS NULL")
	}

	var category models.Category
	err := query.First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &catalog.Error{Kind: catalog.ErrNotFound, Message: fmt.Sprintf("Category not found: %s", name)}
		}
		return nil, err
	}
	return &category, nil
}

// Children returns the direct children of a category
func (r *CategoryRepository) Children(ctx context.Context, tenantID string, parentID uuid.UUID) ([]models.Category, error) {
	var categories []models.Category
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND parent_id = ?", tenantID, parentID).
		Order("name ASC").
		Find(&categories).Error
	return categories, err
}

// ListByIDs returns the categories matching ids, skipping unknown ones
func (r *CategoryRepository) ListByIDs(ctx context.Context, tenantID string, ids []uuid.UUID) ([]models.Category, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var categories []models.Category
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Find(&categories).Error
	return categories, err
}

// DeleteByIDs hard-deletes the given categories
func (r *CategoryRepository) DeleteByIDs(ctx context.Context, tenantID string, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Delete(&models.Category{})
	if result.Error != nil {
		return 0, result.Error
	}
	r.invalidateCaches(ctx, tenantID, nil)
	return result.RowsAffected, nil
}

// GetAll retrieves every category for a tenant with caching. The tree is
// assembled by the caller; categories are small enough to list whole.
func (r *CategoryRepository) GetAll(ctx context.Context, tenantID string) ([]models.Category, error) {
	cacheKey := fmt.Sprintf("storefront:categories:list:%s:all", tenantID)

	if r.redis != nil {
		val, err := r.redis.Get(ctx, cacheKey).Result()
		if err == nil {
			var categories []models.Category
			if err := json.Unmarshal([]byte(val), &categories); err == nil {
				return categories, nil
			}
		}
	}

	var categories []models.Category
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("name ASC").
		Find(&categories).Error
	if err != nil {
		return nil, err
	}

	if r.redis != nil {
		if data, err := json.Marshal(categories); err == nil {
			r.redis.Set(ctx, cacheKey, data, CategoryListCacheTTL)
		}
	}
	return categories, nil
}

// Update updates a category's mutable fields (name, image, active flag).
// Re-parenting is not supported; moving a subtree would silently reshape
// every product's category path.
func (r *CategoryRepository) Update(ctx context.Context, tenantID string, category *models.Category) error {
	result := r.db.WithContext(ctx).
		Model(&models.Category{}).
		Where("id = ? AND tenant_id = ?", category.ID, tenantID).
		Updates(map[string]interface{}{
			"name":      category.Name,
			"image_url": category.ImageURL,
			"is_active": category.IsActive,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return &catalog.Error{Kind: catalog.ErrNotFound, Message: fmt.Sprintf("Category not found: %s", category.ID)}
	}
	r.invalidateCaches(ctx, tenantID, &category.ID)
	return nil
}

// NameExistsUnder reports whether a sibling with the same name already
// exists under parentID (nil for root level), case-insensitively.
func (r *CategoryRepository) NameExistsUnder(ctx context.Context, tenantID, name string, parentID *uuid.UUID, excludeID *uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Category{}).
		Where("tenant_id = ? AND LOWER(name) = LOWER(?)", tenantID, name)
	if parentID == nil {
		query = query.Where("parent_id IS NULL")
	} else {
		query = query.Where("parent_id = ?", *parentID)
	}
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
