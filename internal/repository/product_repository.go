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

const (
	ProductCacheTTL     = 10 * time.Minute
	ProductListCacheTTL = 5 * time.Minute
)

type ProductRepository struct {
	db    *gorm.DB
	redis *redis.Client
}

// ProductRepository satisfies the import pipeline's persistence port.
var _ catalog.ProductStore = (*ProductRepository)(nil)

func NewProductRepository(db *gorm.DB, redis *redis.Client) *ProductRepository {
	return &ProductRepository{
		db:    db,
		redis: redis,
	}
}

func (r *ProductRepository) invalidateCaches(ctx context.Context, tenantID string, productID *uuid.UUID) {
	if r.redis == nil {
		return
	}

	if productID != nil {
		r.redis.Del(ctx, fmt.Sprintf("storefront:products:product:%s:%s", tenantID, productID))
	}
	pattern := fmt.Sprintf("storefront:products:list:%s:*", tenantID)
	keys, _ := r.redis.Keys(ctx, pattern).Result()
	if len(keys) > 0 {
		r.redis.Del(ctx, keys...)
	}
}

// Create persists a new product
func (r *ProductRepository) Create(ctx context.Context, tenantID string, product *models.Product) error {
	product.TenantID = tenantID
	err := r.db.WithContext(ctx).Create(product).Error
	if err == nil {
		r.invalidateCaches(ctx, tenantID, nil)
	}
	return err
}

// GetByID retrieves a product by ID with tenant isolation and caching
// SECURITY: Always requires tenantID to prevent cross-tenant access
func (r *ProductRepository) GetByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.Product, error) {
	cacheKey := fmt.Sprintf("storefront:products:product:%s:%s", tenantID, id)

	if r.redis != nil {
		val, err := r.redis.Get(ctx, cacheKey).Result()
		if err == nil {
			var product models.Product
			if err := json.Unmarshal([]byte(val), &product); err == nil {
				return &product, nil
			}
		}
	}

	var product models.Product
	err := r.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", id, tenantID).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &catalog.Error{Kind: catalog.ErrNotFound, Message: fmt.Sprintf("Product not found: %s", id)}
		}
		return nil, err
	}

	if r.redis != nil {
		if data, err := json.Marshal(product); err == nil {
			r.redis.Set(ctx, cacheKey, data, ProductCacheTTL)
		}
	}
	return &product, nil
}

// FindByName matches a product by case-insensitive exact name.
// Returns (nil, nil) when no product matches.
func (r *ProductRepository) FindByName(ctx context.Context, tenantID, name string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND LOWER(name) = LOWER(?)", tenantID, name).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// Replace overwrites every field of an existing product document
func (r *ProductRepository) Replace(ctx context.Context, tenantID string, product *models.Product) error {
	product.TenantID = tenantID
	result := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", product.ID, tenantID).
		Select("*").
		Omit("id", "tenant_id", "created_at", "created_by").
		Updates(product)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return &catalog.Error{Kind: catalog.ErrNotFound, Message: fmt.Sprintf("Product not found: %s", product.ID)}
	}
	r.invalidateCaches(ctx, tenantID, &product.ID)
	return nil
}

// Save writes back a loaded product after in-place mutation of its JSONB
// fields (variant toggles, revise-rate edits).
func (r *ProductRepository) Save(ctx context.Context, tenantID string, product *models.Product) error {
	return r.Replace(ctx, tenantID, product)
}

// List retrieves products with filters, pagination and caching
func (r *ProductRepository) List(ctx context.Context, tenantID string, req models.ListProductsRequest) ([]models.Product, int64, error) {
	cacheKey := fmt.Sprintf("storefront:products:list:%s:%s", tenantID, req.CacheKey())

	type listResult struct {
		Products []models.Product `json:"products"`
		Total    int64            `json:"total"`
	}

	if r.redis != nil {
		val, err := r.redis.Get(ctx, cacheKey).Result()
		if err == nil {
			var cached listResult
			if err := json.Unmarshal([]byte(val), &cached); err == nil {
				return cached.Products, cached.Total, nil
			}
		}
	}

	query := r.db.WithContext(ctx).Model(&models.Product{}).Where("tenant_id = ?", tenantID)
	if req.CategoryID != nil {
		query = query.Where("main_category_id = ? OR sub_category_id = ?", *req.CategoryID, *req.CategoryID)
	}
	if req.IsActive != nil {
		query = query.Where("is_active = ?", *req.IsActive)
	}
	if req.Search != "" {
		query = query.Where("name ILIKE ?", "%"+req.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []models.Product
	err := query.Order("created_at DESC").
		Limit(req.Limit()).
		Offset(req.Offset()).
		Find(&products).Error
	if err != nil {
		return nil, 0, err
	}

	if r.redis != nil {
		if data, err := json.Marshal(listResult{Products: products, Total: total}); err == nil {
			r.redis.Set(ctx, cacheKey, data, ProductListCacheTTL)
		}
	}
	return products, total, nil
}

// Delete removes a product and returns it so the caller can clean up its
// remote images
func (r *ProductRepository) Delete(ctx context.Context, tenantID string, id uuid.UUID) (*models.Product, error) {
	product, err := r.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	result := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Delete(&models.Product{})
	if result.Error != nil {
		return nil, result.Error
	}
	r.invalidateCaches(ctx, tenantID, &id)
	return product, nil
}

// DeleteByCategoryIDs removes every product referencing the given
// categories and returns their image URLs for remote cleanup
func (r *ProductRepository) DeleteByCategoryIDs(ctx context.Context, tenantID string, ids []uuid.UUID) ([]string, int64, error) {
	if len(ids) == 0 {
		return nil, 0, nil
	}

	var doomed []models.Product
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND (main_category_id IN ? OR sub_category_id IN ?)", tenantID, ids, ids).
		Find(&doomed).Error
	if err != nil {
		return nil, 0, err
	}
	if len(doomed) == 0 {
		return nil, 0, nil
	}

	doomedIDs := make([]uuid.UUID, len(doomed))
	var urls []string
	for i := range doomed {
		doomedIDs[i] = doomed[i].ID
		urls = append(urls, doomed[i].ImageURLs()...)
	}

	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id IN ?", tenantID, doomedIDs).
		Delete(&models.Product{})
	if result.Error != nil {
		return nil, 0, result.Error
	}
	r.invalidateCaches(ctx, tenantID, nil)
	return urls, result.RowsAffected, nil
}

// BulkUpdateStatus flips the active flag on a set of products
func (r *ProductRepository) BulkUpdateStatus(ctx context.Context, tenantID string, ids []uuid.UUID, isActive bool) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Update("is_active", isActive)
	if result.Error != nil {
		return 0, result.Error
	}
	r.invalidateCaches(ctx, tenantID, nil)
	return result.RowsAffected, nil
}

// ListByCategoryIDs returns products whose main or sub category is in ids.
// Used to rebuild denormalized category paths after a rename.
func (r *ProductRepository) ListByCategoryIDs(ctx context.Context, tenantID string, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND (main_category_id IN ? OR sub_category_id IN ?)", tenantID, ids, ids).
		Find(&products).Error
	return products, err
}

// UpdateCategoryPath rewrites the denormalized path of one product
func (r *ProductRepository) UpdateCategoryPath(ctx context.Context, tenantID string, id uuid.UUID, path string) error {
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Update("category_path", path).Error
	if err == nil {
		r.invalidateCaches(ctx, tenantID, &id)
	}
	return err
}

// NextCopyName returns "name (2)", "name (3)"... for product duplication,
// probing case-insensitively until a free name is found.
func (r *ProductRepository) NextCopyName(ctx context.Context, tenantID, name string) (string, error) {
	for n := 2; n < 100; n++ {
		candidate := fmt.Sprintf("%s (%d)", name, n)
		existing, err := r.FindByName(ctx, tenantID, candidate)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free copy name for %q", name)
}
