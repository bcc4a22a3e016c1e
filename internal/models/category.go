package models

import (
	"time"

	"github.com/google/uuid"
)

// Category represents a node in the category hierarchy. Categories use a
// parent-pointer model: ParentID == nil means the node is a root ("main")
// category. Re-parenting is not supported; the tree only grows and shrinks.
type Category struct {
	ID       uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID string     `json:"tenantId" gorm:"column:tenant_id;not null;index:idx_categories_tenant"`
	Name     string     `json:"name" gorm:"not null;index:idx_categories_tenant_name"`
	ParentID *uuid.UUID `json:"parentId,omitempty" gorm:"column:parent_id;index"`
	ImageURL *string    `json:"image,omitempty" gorm:"column:image_url"`
	IsActive bool       `json:"isActive" gorm:"column:is_active;default:true"`

	CreatedAt time.Time `json:"createdAt" gorm:"column:created_at"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"column:updated_at"`
	CreatedBy *string   `json:"createdBy,omitempty"`
	UpdatedBy *string   `json:"updatedBy,omitempty"`
}

// TableName returns the table name for the Category model
func (Category) TableName() string {
	return "categories"
}

// CreateCategoryRequest represents a request to create a category
type CreateCategoryRequest struct {
	Name     string  `json:"name" binding:"required"`
	ParentID *string `json:"parentId,omitempty"`
	ImageURL *string `json:"image,omitempty"`
}

// UpdateCategoryRequest represents a request to update a category.
// ParentID is intentionally absent: re-parenting is not supported.
type UpdateCategoryRequest struct {
	Name     *string `json:"name,omitempty"`
	ImageURL *string `json:"image,omitempty"`
	IsActive *bool   `json:"isActive,omitempty"`
}

type CategoryResponse struct {
	Success bool      `json:"success"`
	Data    *Category `json:"data"`
	Message *string   `json:"message,omitempty"`
}

type CategoryListResponse struct {
	Success    bool            `json:"success"`
	Data       []Category      `json:"data"`
	Pagination *PaginationInfo `json:"pagination,omitempty"`
}

// CategoryTreeNode is a category with its resolved children, used by the
// storefront tree endpoint.
type CategoryTreeNode struct {
	Category
	Path     string              `json:"path"`
	Children []*CategoryTreeNode `json:"children,omitempty"`
}
