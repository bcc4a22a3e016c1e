package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PricingType discriminates the pricing shape of a product. The values are
// lowercase because they are part of the public API payloads.
type PricingType string

const (
	PricingTypeNormal  PricingType = "normal"  // flat price/stock at product level
	PricingTypeDynamic PricingType = "dynamic" // single formula record (marker key "1*1*1")
	PricingTypeStatic  PricingType = "static"  // enumerated dimension -> price table
)

// BulkTier is one wholesale price break: "quantity or more units cost
// wholesalePrice each".
type BulkTier struct {
	WholesalePrice float64 `json:"wholesalePrice"`
	Quantity       int     `json:"quantity"`
}

// BulkTierList type for PostgreSQL JSONB (array of tiers)
type BulkTierList []BulkTier

func (l BulkTierList) Value() (driver.Value, error) {
	return json.Marshal(l)
}

func (l *BulkTierList) Scan(value interface{}) error {
	if value == nil {
		*l = make(BulkTierList, 0)
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, l)
}

// DimensionRecord is a single dynamic-pricing record. Dynamic products carry
// exactly one of these with length=breadth=height=1; the price is the formula
// base applied to arbitrary customer-supplied dimensions.
type DimensionRecord struct {
	Length  float64 `json:"length"`
	Breadth float64 `json:"breadth"`
	Height  float64 `json:"height"`
	Price   float64 `json:"price"`
}

// DimensionList type for PostgreSQL JSONB
type DimensionList []DimensionRecord

func (l DimensionList) Value() (driver.Value, error) {
	return json.Marshal(l)
}

func (l *DimensionList) Scan(value interface{}) error {
	if value == nil {
		*l = make(DimensionList, 0)
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, l)
}

// StaticDimension is one enumerated size row of a static-pricing product.
type StaticDimension struct {
	Length      float64      `json:"length"`
	Breadth     float64      `json:"breadth"`
	Height      float64      `json:"height,omitempty"`
	Price       float64      `json:"price"`
	Stock       int          `json:"stock"`
	BulkPricing BulkTierList `json:"bulkPricing"`
}

// StaticDimensionList type for PostgreSQL JSONB
type StaticDimensionList []StaticDimension

func (l StaticDimensionList) Value() (driver.Value, error) {
	return json.Marshal(l)
}

func (l *StaticDimensionList) Scan(value interface{}) error {
	if value == nil {
		*l = make(StaticDimensionList, 0)
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, l)
}

// SizeDetail is a concrete purchasable unit inside a variant: dimensions,
// price, stock and an independent discount window.
type SizeDetail struct {
	Length           float64      `json:"length"`
	Breadth          float64      `json:"breadth"`
	Height           float64      `json:"height,omitempty"`
	Unit             string       `json:"unit,omitempty"`
	Price            float64      `json:"price"`
	Stock            int          `json:"stock"`
	BulkPricing      BulkTierList `json:"bulkPricing"`
	AdditionalImages StringList   `json:"additionalImages,omitempty"`
	IsActive         bool         `json:"isActive"`

	DiscountPrice           *float64     `json:"discountPrice,omitempty"`
	DiscountStartDate       *time.Time   `json:"discountStartDate,omitempty"`
	DiscountEndDate         *time.Time   `json:"discountEndDate,omitempty"`
	DiscountBulkPricing     BulkTierList `json:"discountBulkPricing,omitempty"`
	ComeBackToOriginalPrice bool         `json:"comeBackToOriginalPrice"`
}

// Variant is one color/style axis of a product. Exactly one variant of a
// product is the default.
type Variant struct {
	Name        string       `json:"name"`
	Image       string       `json:"image,omitempty"`
	IsDefault   bool         `json:"isDefault"`
	IsActive    bool         `json:"isActive"`
	MoreDetails []SizeDetail `json:"moreDetails"`
}

// VariantList type for PostgreSQL JSONB
type VariantList []Variant

func (l VariantList) Value() (driver.Value, error) {
	return json.Marshal(l)
}

func (l *VariantList) Scan(value interface{}) error {
	if value == nil {
		*l = make(VariantList, 0)
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, l)
}

// Product represents a catalog product. The pricing shapes are mutually
// exclusive and discriminated by (HasVariants, HasDimensions, PricingType):
//
//	flat:     HasVariants=false HasDimensions=false PricingType=normal  -> Price/Stock/BulkPricing
//	dynamic:  HasVariants=false HasDimensions=true  PricingType=dynamic -> Dimensions (one record)
//	static:   HasVariants=false HasDimensions=true  PricingType=static  -> StaticDimensions
//	variants: HasVariants=true  HasDimensions=false PricingType=normal  -> Variants
//
// CategoryPath is denormalized ("Root > Child > Leaf") and rebuilt on every
// category-affecting write.
type Product struct {
	ID             uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID       string     `json:"tenantId" gorm:"not null;index:idx_products_tenant;index:idx_products_tenant_name"`
	Name           string     `json:"name" gorm:"not null;index:idx_products_tenant_name"`
	Description    *string    `json:"description,omitempty"`
	MainCategoryID uuid.UUID  `json:"mainCategoryId" gorm:"type:uuid;not null;index"`
	SubCategoryID  *uuid.UUID `json:"subCategoryId,omitempty" gorm:"type:uuid;index"`
	CategoryPath   string     `json:"categoryPath" gorm:"not null"`

	MainImage        *string    `json:"mainImage,omitempty"`
	AdditionalImages StringList `json:"additionalImages,omitempty" gorm:"type:jsonb"`

	IsActive      bool        `json:"isActive" gorm:"default:true"`
	HasVariants   bool        `json:"hasVariants" gorm:"default:false"`
	HasDimensions bool        `json:"hasDimensions" gorm:"default:false"`
	PricingType   PricingType `json:"pricingType" gorm:"type:varchar(10);not null;default:'normal'"`

	// Flat pricing (PricingType == normal, no variants)
	Price       *float64     `json:"price,omitempty"`
	Stock       *int         `json:"stock,omitempty"`
	BulkPricing BulkTierList `json:"bulkPricing,omitempty" gorm:"type:jsonb"`

	// Product-level discount window (flat products only)
	DiscountPrice           *float64     `json:"discountPrice,omitempty"`
	DiscountStartDate       *time.Time   `json:"discountStartDate,omitempty"`
	DiscountEndDate         *time.Time   `json:"discountEndDate,omitempty"`
	DiscountBulkPricing     BulkTierList `json:"discountBulkPricing,omitempty" gorm:"type:jsonb"`
	ComeBackToOriginalPrice bool         `json:"comeBackToOriginalPrice" gorm:"default:true"`

	// Dimension pricing (mutually exclusive with variants)
	Dimensions       DimensionList       `json:"dimensions,omitempty" gorm:"type:jsonb"`
	StaticDimensions StaticDimensionList `json:"staticDimensions,omitempty" gorm:"type:jsonb"`

	// Variant pricing (mutually exclusive with dimensions)
	Variants VariantList `json:"variants,omitempty" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	CreatedBy *string   `json:"createdBy,omitempty"`
	UpdatedBy *string   `json:"updatedBy,omitempty"`
}

// TableName returns the table name for the Product model
func (Product) TableName() string {
	return "products"
}

// DefaultVariant returns the default variant, or nil for non-variant products.
func (p *Product) DefaultVariant() *Variant {
	for i := range p.Variants {
		if p.Variants[i].IsDefault {
			return &p.Variants[i]
		}
	}
	return nil
}

// ImageURLs collects every remote image URL referenced by the product,
// including variant and size images. Used by duplicate and override to diff
// and deep-copy assets.
func (p *Product) ImageURLs() []string {
	urls := make([]string, 0, 4)
	if p.MainImage != nil && *p.MainImage != "" {
		urls = append(urls, *p.MainImage)
	}
	for _, u := range p.AdditionalImages {
		if u != "" {
			urls = append(urls, u)
		}
	}
	for _, v := range p.Variants {
		if v.Image != "" {
			urls = append(urls, v.Image)
		}
		for _, sd := range v.MoreDetails {
			for _, u := range sd.AdditionalImages {
				if u != "" {
					urls = append(urls, u)
				}
			}
		}
	}
	return urls
}

// EffectivePrice returns the price a storefront buyer pays right now for a
// flat product: the discount price while inside the discount window, the base
// price otherwise. Variant/dimension products price at the size level.
func (p *Product) EffectivePrice(now time.Time) float64 {
	if p.Price == nil {
		return 0
	}
	if p.DiscountPrice != nil && p.DiscountStartDate != nil && p.DiscountEndDate != nil {
		if !now.Before(*p.DiscountStartDate) && !now.After(*p.DiscountEndDate) {
			return *p.DiscountPrice
		}
		// When the window has ended and the discount is flagged as
		// permanent, the discounted price becomes the new base price.
		if now.After(*p.DiscountEndDate) && !p.ComeBackToOriginalPrice {
			return *p.DiscountPrice
		}
	}
	return *p.Price
}

// CreateProductRequest represents a request to create a single product
type CreateProductRequest struct {
	Name             string     `json:"name" binding:"required"`
	Description      *string    `json:"description,omitempty"`
	MainCategoryID   string     `json:"mainCategoryId" binding:"required"`
	SubCategoryID    *string    `json:"subCategoryId,omitempty"`
	MainImage        *string    `json:"mainImage,omitempty"`
	AdditionalImages []string   `json:"additionalImages,omitempty"`
	HasVariants      bool       `json:"hasVariants"`
	Dimensions       string     `json:"dimensions,omitempty"` // compact encoding, same as the import sheet
	Price            *float64   `json:"price,omitempty"`
	Stock            *int       `json:"stock,omitempty"`
	BulkPricing      []BulkTier `json:"bulkPricing,omitempty"`
	Variants         []Variant  `json:"variants,omitempty"`
}

// UpdateProductRequest represents a request to update a product
type UpdateProductRequest struct {
	Name             *string    `json:"name,omitempty"`
	Description      *string    `json:"description,omitempty"`
	MainCategoryID   *string    `json:"mainCategoryId,omitempty"`
	SubCategoryID    *string    `json:"subCategoryId,omitempty"`
	MainImage        *string    `json:"mainImage,omitempty"`
	AdditionalImages []string   `json:"additionalImages,omitempty"`
	Price            *float64   `json:"price,omitempty"`
	Stock            *int       `json:"stock,omitempty"`
	BulkPricing      []BulkTier `json:"bulkPricing,omitempty"`
	Variants         []Variant  `json:"variants,omitempty"`
}

// ReviseRateRequest adjusts the price/discount of a flat product or of one
// variant size. Unlike bulk import, this path validates the discount price
// against the base price.
type ReviseRateRequest struct {
	Price                   *float64   `json:"price,omitempty"`
	DiscountPrice           *float64   `json:"discountPrice,omitempty"`
	DiscountStartDate       *time.Time `json:"discountStartDate,omitempty"`
	DiscountEndDate         *time.Time `json:"discountEndDate,omitempty"`
	DiscountBulkPricing     []BulkTier `json:"discountBulkPricing,omitempty"`
	ComeBackToOriginalPrice *bool      `json:"comeBackToOriginalPrice,omitempty"`
	VariantName             *string    `json:"variantName,omitempty"` // target one variant size
	SizeIndex               *int       `json:"sizeIndex,omitempty"`
}

// ToggleActiveRequest switches the active flag at product, variant or size
// granularity. Omitting VariantName and SizeIndex targets the whole product.
type ToggleActiveRequest struct {
	IsActive    bool    `json:"isActive"`
	VariantName *string `json:"variantName,omitempty"`
	SizeIndex   *int    `json:"sizeIndex,omitempty"`
}

type ProductResponse struct {
	Success bool     `json:"success"`
	Data    *Product `json:"data"`
	Message *string  `json:"message,omitempty"`
}

type ProductListResponse struct {
	Success    bool            `json:"success"`
	Data       []Product       `json:"data"`
	Pagination *PaginationInfo `json:"pagination,omitempty"`
}

// ListProductsRequest represents product listing filters
type ListProductsRequest struct {
	Search     string  `form:"q"`
	CategoryID *string `form:"categoryId"`
	IsActive   *bool   `form:"isActive"`
	Page       int     `form:"page"`
	PageSize   int     `form:"limit"`
}

// Limit returns the sanitized page size.
func (r ListProductsRequest) Limit() int {
	if r.PageSize < 1 || r.PageSize > 100 {
		return 20
	}
	return r.PageSize
}

// Offset returns the row offset for the requested page.
func (r ListProductsRequest) Offset() int {
	page := r.Page
	if page < 1 {
		page = 1
	}
	return (page - 1) * r.Limit()
}

// CacheKey encodes the filter set for list caching.
func (r ListProductsRequest) CacheKey() string {
	category := ""
	if r.CategoryID != nil {
		category = *r.CategoryID
	}
	active := "any"
	if r.IsActive != nil {
		active = fmt.Sprintf("%t", *r.IsActive)
	}
	return fmt.Sprintf("%s:%s:%s:%d:%d", r.Search, category, active, r.Limit(), r.Offset())
}
