package models

import (
	"time"

	"github.com/google/uuid"
)

// Discount is a category-wide, time-boxed percentage discount. A nil
// CategoryID means the discount applies to all products. Overlapping windows
// for the same scope are rejected at creation time.
type Discount struct {
	ID       uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID string    `json:"tenantId" gorm:"not null;index:idx_discounts_tenant"`

	StartDate  time.Time `json:"startDate" gorm:"not null;index"`
	EndDate    time.Time `json:"endDate" gorm:"not null;index"`
	Percentage float64   `json:"percentage" gorm:"type:decimal(5,2);not null"`

	// Scope: nil category => all products
	CategoryID    *uuid.UUID `json:"categoryId,omitempty" gorm:"type:uuid;index"`
	SubCategoryID *uuid.UUID `json:"subCategoryId,omitempty" gorm:"type:uuid"`

	IsActive bool `json:"isActive" gorm:"default:true"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	CreatedBy *string   `json:"createdBy,omitempty"`
}

// TableName returns the table name for the Discount model
func (Discount) TableName() string {
	return "discounts"
}

// SameScope reports whether two discounts target the same scope: both
// all-products, or the same main/sub category pair.
func (d *Discount) SameScope(other *Discount) bool {
	if (d.CategoryID == nil) != (other.CategoryID == nil) {
		return false
	}
	if d.CategoryID == nil {
		return true
	}
	if *d.CategoryID != *other.CategoryID {
		return false
	}
	if (d.SubCategoryID == nil) != (other.SubCategoryID == nil) {
		return false
	}
	return d.SubCategoryID == nil || *d.SubCategoryID == *other.SubCategoryID
}

// Overlaps reports whether two time windows intersect.
func (d *Discount) Overlaps(start, end time.Time) bool {
	return !d.EndDate.Before(start) && !d.StartDate.After(end)
}

// CreateDiscountRequest represents a request to create a discount
type CreateDiscountRequest struct {
	StartDate     time.Time `json:"startDate" binding:"required"`
	EndDate       time.Time `json:"endDate" binding:"required"`
	Percentage    float64   `json:"percentage" binding:"required,gt=0,lte=100"`
	CategoryID    *string   `json:"categoryId,omitempty"`
	SubCategoryID *string   `json:"subCategoryId,omitempty"`
}

type DiscountResponse struct {
	Success bool      `json:"success"`
	Data    *Discount `json:"data"`
	Message *string   `json:"message,omitempty"`
}

type DiscountListResponse struct {
	Success bool       `json:"success"`
	Data    []Discount `json:"data"`
}
