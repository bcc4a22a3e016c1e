package catalog

import (
	"context"
	"io"

	"github.com/google/uuid"

	"storefront-service/internal/models"
)

// CategoryStore is the slice of the category repository the pipeline needs.
// All lookups are tenant scoped.
type CategoryStore interface {
	// ByID returns the category or a wrapped ErrNotFound.
	ByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.Category, error)
	// ByName resolves a category by case-insensitive name. When rootOnly is
	// set only top-level categories (no parent) are considered. Returns a
	// wrapped ErrNotFound when nothing matches.
	ByName(ctx context.Context, tenantID, name string, rootOnly bool) (*models.Category, error)
	// Children returns the direct children of parentID.
	Children(ctx context.Context, tenantID string, parentID uuid.UUID) ([]models.Category, error)
	// ListByIDs returns the categories matching ids, skipping unknown ones.
	ListByIDs(ctx context.Context, tenantID string, ids []uuid.UUID) ([]models.Category, error)
	// DeleteByIDs hard-deletes the given categories and returns the count.
	DeleteByIDs(ctx context.Context, tenantID string, ids []uuid.UUID) (int64, error)
}

// ProductStore is the slice of the product repository the pipeline needs.
type ProductStore interface {
	// FindByName matches a product by case-insensitive name.
	// Returns (nil, nil) when no product matches.
	FindByName(ctx context.Context, tenantID, name string) (*models.Product, error)
	// GetByID returns the product or a wrapped ErrNotFound.
	GetByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.Product, error)
	// Create persists a new product document.
	Create(ctx context.Context, tenantID string, product *models.Product) error
	// Replace overwrites every field of an existing product document.
	Replace(ctx context.Context, tenantID string, product *models.Product) error
	// DeleteByCategoryIDs removes all products whose main or sub category is
	// in ids, returning the image URLs of the removed products and how many
	// products were removed.
	DeleteByCategoryIDs(ctx context.Context, tenantID string, ids []uuid.UUID) ([]string, int64, error)
}

// AssetStore stores and removes remote images. Implemented by the asset
// service client; tests substitute an in-memory fake.
type AssetStore interface {
	// Upload stores the file content and returns its public URL.
	Upload(ctx context.Context, content io.Reader, filename, folder string) (string, error)
	// Destroy removes a previously uploaded asset by its public id.
	Destroy(ctx context.Context, publicID string) error
	// Duplicate copies an existing remote asset and returns the new URL.
	Duplicate(ctx context.Context, url, folder string) (string, error)
}

// ProgressSink receives a snapshot after every processed product so the
// admin UI can render a live progress bar.
type ProgressSink interface {
	EmitProgress(ctx context.Context, tenantID string, progress models.ImportProgress)
}

// NopProgress discards progress updates.
type NopProgress struct{}

func (NopProgress) EmitProgress(context.Context, string, models.ImportProgress) {}
