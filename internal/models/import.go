package models

// ImportTemplateColumn defines a column in the import template
type ImportTemplateColumn struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	Type        string `json:"type"` // string, number, boolean, json
	Example     string `json:"example"`
}

// ImportTemplate defines the structure of an import template
type ImportTemplate struct {
	Entity  string                 `json:"entity"`
	Version string                 `json:"version"`
	Columns []ImportTemplateColumn `json:"columns"`
}

// SuccessfulProduct is one successfully persisted product in a batch result.
type SuccessfulProduct struct {
	ProductName   string `json:"productName"`
	ProductID     string `json:"productId"`
	CategoryPath  string `json:"categoryPath"`
	VariantsCount int    `json:"variantsCount"`
	RowsProcessed int    `json:"rowsProcessed"`
}

// FailedProduct is one failed product group in a batch result. RowsAffected
// carries the original 1-based sheet row numbers so an operator can fix the
// source file and re-upload just those rows.
type FailedProduct struct {
	ProductName  string `json:"productName"`
	Error        string `json:"error"`
	RowsAffected []int  `json:"rowsAffected"`
}

// ExistingProduct describes a product whose name collided with a sheet group
// during import. The group is excluded from creation and surfaced for manual
// conflict resolution.
type ExistingProduct struct {
	ProductID     string `json:"productId"`
	Name          string `json:"name"`
	Image         string `json:"image,omitempty"`
	CategoryPath  string `json:"categoryPath"`
	HasVariants   bool   `json:"hasVariants"`
	VariantsCount int    `json:"variantsCount"`
}

// BatchResults is the per-product ledger of a bulk import/override run.
type BatchResults struct {
	Successful     []SuccessfulProduct `json:"successful"`
	Failed         []FailedProduct     `json:"failed"`
	Warnings       []string            `json:"warnings,omitempty"`
	TotalProcessed int                 `json:"totalProcessed"`
	SuccessCount   int                 `json:"successCount"`
	FailCount      int                 `json:"failCount"`
}

// BatchImportResult is the stable response payload of bulk import/override.
// Partial failure still returns success=true with the ledger enumerating both
// outcomes; only a batch-level hard failure produces success=false.
type BatchImportResult struct {
	Success          bool              `json:"success"`
	Message          string            `json:"message"`
	Results          BatchResults      `json:"results"`
	ExistingProducts []ExistingProduct `json:"existingProducts,omitempty"`
}

// ImportProgress is emitted after every processed product group.
type ImportProgress struct {
	Processed    int `json:"processed"`
	Total        int `json:"total"`
	SuccessCount int `json:"successCount"`
	FailCount    int `json:"failCount"`
}

// ProductImportColumns returns the column definitions for the product sheet
func ProductImportColumns() []ImportTemplateColumn {
	return []ImportTemplateColumn{
		{Name: "productName", Description: "Product name (rows with the same name form one product)", Required: true, Type: "string", Example: "Ceramic Mug"},
		{Name: "description", Description: "Product description", Required: false, Type: "string", Example: ""},
		{Name: "mainCategory", Description: "Root category name (must exist)", Required: true, Type: "string", Example: "Kitchen"},
		{Name: "subCategory", Description: "Sub category name (must be a descendant of mainCategory)", Required: false, Type: "string", Example: "Drinkware"},
		{Name: "hasVariants", Description: "TRUE when the product has color variants", Required: false, Type: "boolean", Example: "FALSE"},
		{Name: "colorName", Description: "Variant color name (required on every row when hasVariants=TRUE)", Required: false, Type: "string", Example: "Matte Black"},
		{Name: "isDefault", Description: "TRUE on the default variant's rows", Required: false, Type: "boolean", Example: "TRUE"},
		{Name: "mainImage", Description: "Main image filename inside the ZIP bundle", Required: false, Type: "string", Example: "mug-black.jpg"},
		{Name: "additionalImages", Description: "Comma-separated image filenames inside the ZIP bundle", Required: false, Type: "string", Example: "mug-1.jpg,mug-2.jpg"},
		{Name: "price", Description: "Flat price (non-variant, non-dimension products)", Required: false, Type: "number", Example: "100"},
		{Name: "stock", Description: "Flat stock (non-variant, non-dimension products)", Required: false, Type: "number", Example: "5"},
		{Name: "bulkPricing", Description: `JSON array of {"wholesalePrice","quantity"} tiers`, Required: false, Type: "json", Example: `[{"wholesalePrice":90,"quantity":10}]`},
		{Name: "dimensions", Description: `Dimension pricing: [{"1*1*1":"250"}] for dynamic, [{"10*10*5":{"price":"300","stock":"20","bulkPricing":[]}}] for static`, Required: false, Type: "json", Example: ""},
		{Name: "length", Description: "Size length (variant rows)", Required: false, Type: "number", Example: "10"},
		{Name: "breadth", Description: "Size breadth (variant rows)", Required: false, Type: "number", Example: "10"},
		{Name: "height", Description: "Size height (variant rows)", Required: false, Type: "number", Example: "5"},
		{Name: "unit", Description: "Size unit (variant rows)", Required: false, Type: "string", Example: "cm"},
		{Name: "discountPrice", Description: "Discounted price", Required: false, Type: "number", Example: ""},
		{Name: "discountStartDate", Description: "Discount window start (YYYY-MM-DD)", Required: false, Type: "string", Example: ""},
		{Name: "discountEndDate", Description: "Discount window end (YYYY-MM-DD)", Required: false, Type: "string", Example: ""},
		{Name: "discountBulkPricing", Description: "JSON array of discounted wholesale tiers", Required: false, Type: "json", Example: ""},
		{Name: "comeBackToOriginalPrice", Description: "TRUE when the base price reverts after the discount window", Required: false, Type: "boolean", Example: "TRUE"},
	}
}

// ProductImportTemplate returns the template definition for products
func ProductImportTemplate() ImportTemplate {
	return ImportTemplate{
		Entity:  "products",
		Version: "1.0",
		Columns: ProductImportColumns(),
	}
}
