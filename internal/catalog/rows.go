package catalog

import (
	"strings"

	"storefront-service/internal/models"
)

// Normalized workbook column keys. Headers are lower-cased and stripped
// of spaces and the "*" required-marker suffix before lookup, so these
// constants match both "Product Name *" and "productName".
const (
	colProductName      = "productname"
	colDescription      = "description"
	colMainCategory     = "maincategory"
	colSubCategory      = "subcategory"
	colHasVariants      = "hasvariants"
	colColorName        = "colorname"
	colIsDefault        = "isdefault"
	colMainImage        = "mainimage"
	colAdditionalImages = "additionalimages"
	colPrice            = "price"
	colStock            = "stock"
	colBulkPricing      = "bulkpricing"
	colDimensions       = "dimensions"
	colLength           = "length"
	colBreadth          = "breadth"
	colHeight           = "height"
	colUnit             = "unit"
	colDiscountPrice    = "discountprice"
	colDiscountStart    = "discountstartdate"
	colDiscountEnd      = "discountenddate"
	colDiscountBulk     = "discountbulkpricing"
	colComeBackToPrice  = "comebacktooriginalprice"
)

// Row is one workbook line: its 1-based sheet position plus the
// normalized-header → raw-cell mapping.
type Row struct {
	Index  int
	Fields map[string]string
}

// Get returns the trimmed cell under the normalized key.
func (r Row) Get(key string) string {
	return strings.TrimSpace(r.Fields[key])
}

// ProductGroup is every row sharing one product name, in file order.
type ProductGroup struct {
	// Name is the product name as written on the first row of the group.
	Name     string
	Rows     []Row
	Warnings []string
}

// First returns the authoritative row of the group. Later rows only
// contribute variants and sizes; product-level fields come from here.
func (g *ProductGroup) First() Row { return g.Rows[0] }

// RowNumbers lists the original sheet positions of every row in the group.
func (g *ProductGroup) RowNumbers() []int {
	nums := make([]int, len(g.Rows))
	for i, r := range g.Rows {
		nums[i] = r.Index
	}
	return nums
}

// Grouping is the outcome of collapsing raw rows into product groups.
type Grouping struct {
	Groups []*ProductGroup
	Failed []models.FailedProduct
}

// productLevelColumns are fields that must agree across the rows of one
// group; a mismatch means duplicate rows carry conflicting metadata.
var productLevelColumns = []string{
	colMainCategory, colSubCategory, colHasVariants, colDimensions,
	colDiscountPrice, colDiscountStart, colDiscountEnd, colComeBackToPrice,
}

// GroupRows collapses rows into product groups keyed by lower-cased name,
// preserving file order within and across groups. Rows without a product
// name go straight to the failure ledger. When duplicate rows disagree on
// product-level fields the first row wins and the conflict is surfaced as
// a warning on the group.
func GroupRows(rows []Row) Grouping {
	var out Grouping
	index := make(map[string]*ProductGroup)

	for _, row := range rows {
		name := row.Get(colProductName)
		if name == "" {
			out.Failed = append(out.Failed, models.FailedProduct{
				ProductName:  "(unnamed)",
				Error:        "Missing product name",
				RowsAffected: []int{row.Index},
			})
			continue
		}

		key := strings.ToLower(name)
		group, ok := index[key]
		if !ok {
			group = &ProductGroup{Name: name}
			index[key] = group
			out.Groups = append(out.Groups, group)
		}
		group.Rows = append(group.Rows, row)
	}

	for _, group := range out.Groups {
		group.Warnings = append(group.Warnings, detectConflicts(group)...)
	}
	return out
}

// detectConflicts compares product-level fields of every row against the
// first row. Empty cells on later rows are not conflicts; the sheet often
// leaves them blank on continuation rows.
func detectConflicts(g *ProductGroup) []string {
	if len(g.Rows) < 2 {
		return nil
	}
	first := g.First()
	var warnings []string
	for _, col := range productLevelColumns {
		want := first.Get(col)
		for _, row := range g.Rows[1:] {
			got := row.Get(col)
			if got == "" || strings.EqualFold(got, want) {
				continue
			}
			warnings = append(warnings,
				"Conflicting values for "+col+" in product '"+g.Name+
					"'; using first row value")
			break
		}
	}
	return warnings
}

// VariantGroup is the rows of one color within a variant product.
type VariantGroup struct {
	Color string
	Rows  []Row
}

// SplitVariants sub-groups a variant product by color, in file order.
// Any row without a color name fails the whole product.
func SplitVariants(g *ProductGroup) ([]*VariantGroup, error) {
	var variants []*VariantGroup
	index := make(map[string]*VariantGroup)

	for _, row := range g.Rows {
		color := row.Get(colColorName)
		if color == "" {
			return nil, validationf("Missing variant color name")
		}
		key := strings.ToLower(color)
		vg, ok := index[key]
		if !ok {
			vg = &VariantGroup{Color: color}
			index[key] = vg
			variants = append(variants, vg)
		}
		vg.Rows = append(vg.Rows, row)
	}
	return variants, nil
}

// ParseBoolCell coerces the spreadsheet truthy spellings. Anything other
// than TRUE/true/1/yes is false.
func ParseBoolCell(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}
