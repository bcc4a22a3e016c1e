package catalog

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"storefront-service/internal/models"
)

// Assembler turns one product group into a normalized product document:
// categories resolved, images uploaded, pricing shape decided.
type Assembler struct {
	tree   *TreeService
	assets *Resolver
	logger *logrus.Entry
}

func NewAssembler(tree *TreeService, assets *Resolver, logger *logrus.Logger) *Assembler {
	return &Assembler{
		tree:   tree,
		assets: assets,
		logger: logger.WithField("component", "product-assembler"),
	}
}

// Assemble builds the product document for one group. Errors are tagged
// with wrapped sentinels so the orchestrator can record them per product;
// the group's warning list collects non-fatal issues (skipped images,
// promoted default variant).
func (a *Assembler) Assemble(ctx context.Context, tenantID string, group *ProductGroup, bundle *Bundle, folder string) (*models.Product, error) {
	first := group.First()

	mainName := first.Get(colMainCategory)
	if mainName == "" {
		return nil, validationf("Missing main category")
	}
	mainCat, err := a.tree.ResolveByName(ctx, tenantID, mainName, true)
	if err != nil {
		return nil, notFoundf("Main category not found: %s", mainName)
	}

	var subCat *models.Category
	if subName := first.Get(colSubCategory); subName != "" {
		subCat, err = a.tree.ResolveByName(ctx, tenantID, subName, false)
		if err != nil {
			return nil, notFoundf("Sub category not found: %s", subName)
		}
		ok, err := a.tree.IsDescendantOf(ctx, tenantID, subCat.ID, mainCat.ID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, validationf("Sub category %q is not under main category %q", subCat.Name, mainCat.Name)
		}
	}

	pathTarget := mainCat.ID
	if subCat != nil {
		pathTarget = subCat.ID
	}
	categoryPath, err := a.tree.BuildPath(ctx, tenantID, pathTarget)
	if err != nil {
		return nil, err
	}

	product := &models.Product{
		TenantID:       tenantID,
		Name:           group.Name,
		MainCategoryID: mainCat.ID,
		CategoryPath:   categoryPath,
		IsActive:       true,
		PricingType:    models.PricingTypeNormal,
	}
	if subCat != nil {
		id := subCat.ID
		product.SubCategoryID = &id
	}
	if desc := first.Get(colDescription); desc != "" {
		product.Description = &desc
	}

	hasVariants := ParseBoolCell(first.Get(colHasVariants))
	dimensionsCell := first.Get(colDimensions)
	if hasVariants {
		for _, row := range group.Rows {
			if cell := row.Get(colDimensions); cell != "" && cell != "[]" {
				return nil, validationf("Variant products cannot carry dimension pricing")
			}
		}
	}

	if hasVariants {
		if err := a.assembleVariants(ctx, product, group, bundle, folder); err != nil {
			return nil, err
		}
	} else {
		if err := a.assembleSingle(ctx, product, group, bundle, folder, dimensionsCell); err != nil {
			return nil, err
		}
	}
	return product, nil
}

func (a *Assembler) assembleSingle(ctx context.Context, product *models.Product, group *ProductGroup, bundle *Bundle, folder, dimensionsCell string) error {
	first := group.First()

	if mainImage := first.Get(colMainImage); mainImage != "" {
		url, err := a.assets.UploadFromBundle(ctx, bundle, mainImage, folder)
		if err != nil {
			return err
		}
		product.MainImage = &url
	}
	product.AdditionalImages = a.uploadOptionalImages(ctx, group, first.Get(colAdditionalImages), bundle, folder)

	dims, err := ParseDimensions(dimensionsCell)
	if err != nil {
		return err
	}
	product.HasDimensions = dims.HasDimensions
	product.PricingType = dims.PricingType
	product.Dimensions = dims.Dimensions
	product.StaticDimensions = dims.StaticDimensions

	if dims.PricingType == models.PricingTypeNormal {
		price, ok := parseFloatCell(first.Get(colPrice))
		if !ok {
			return validationf("Missing or invalid price")
		}
		product.Price = &price
		if stock, ok := parseIntCell(first.Get(colStock)); ok {
			product.Stock = &stock
		}
		product.BulkPricing = parseBulkPricingCell(first.Get(colBulkPricing))
	}

	a.applyDiscountFields(first, &product.DiscountPrice, &product.DiscountStartDate,
		&product.DiscountEndDate, &product.DiscountBulkPricing, &product.ComeBackToOriginalPrice)
	return nil
}

func (a *Assembler) assembleVariants(ctx context.Context, product *models.Product, group *ProductGroup, bundle *Bundle, folder string) error {
	variantGroups, err := SplitVariants(group)
	if err != nil {
		return err
	}

	product.HasVariants = true
	defaultCount := 0

	for _, vg := range variantGroups {
		vfirst := vg.Rows[0]
		variant := models.Variant{
			Name:     vg.Color,
			IsActive: true,
		}

		if image := vfirst.Get(colMainImage); image != "" {
			url, err := a.assets.UploadFromBundle(ctx, bundle, image, folder)
			if err != nil {
				group.Warnings = append(group.Warnings,
					"Variant image skipped for '"+vg.Color+"': "+err.Error())
			} else {
				variant.Image = url
			}
		}

		if ParseBoolCell(vfirst.Get(colIsDefault)) {
			defaultCount++
			if defaultCount > 1 {
				return validationf("Multiple default variants for product %q", group.Name)
			}
			variant.IsDefault = true
		}

		for _, row := range vg.Rows {
			size, err := a.assembleSize(ctx, group, row, bundle, folder)
			if err != nil {
				return err
			}
			variant.MoreDetails = append(variant.MoreDetails, size)
		}
		product.Variants = append(product.Variants, variant)
	}

	// No row claimed the default slot; promote the first variant so the
	// storefront always has something to render.
	if defaultCount == 0 && len(product.Variants) > 0 {
		product.Variants[0].IsDefault = true
		group.Warnings = append(group.Warnings,
			"No default variant specified for '"+group.Name+"'; first variant promoted")
	}
	return nil
}

func (a *Assembler) assembleSize(ctx context.Context, group *ProductGroup, row Row, bundle *Bundle, folder string) (models.SizeDetail, error) {
	price, ok := parseFloatCell(row.Get(colPrice))
	if !ok {
		return models.SizeDetail{}, validationf("Missing or invalid price on row %d", row.Index)
	}

	size := models.SizeDetail{
		Price:       price,
		Unit:        row.Get(colUnit),
		BulkPricing: parseBulkPricingCell(row.Get(colBulkPricing)),
		IsActive:    true,
	}
	if v, ok := parseFloatCell(row.Get(colLength)); ok {
		size.Length = v
	}
	if v, ok := parseFloatCell(row.Get(colBreadth)); ok {
		size.Breadth = v
	}
	if v, ok := parseFloatCell(row.Get(colHeight)); ok {
		size.Height = v
	}
	if v, ok := parseIntCell(row.Get(colStock)); ok {
		size.Stock = v
	}
	size.AdditionalImages = a.uploadOptionalImages(ctx, group, row.Get(colAdditionalImages), bundle, folder)

	a.applyDiscountFields(row, &size.DiscountPrice, &size.DiscountStartDate,
		&size.DiscountEndDate, &size.DiscountBulkPricing, &size.ComeBackToOriginalPrice)
	return size, nil
}

// uploadOptionalImages uploads a comma-separated image list best effort:
// a missing or failing image is a warning, never an error.
func (a *Assembler) uploadOptionalImages(ctx context.Context, group *ProductGroup, cell string, bundle *Bundle, folder string) models.StringList {
	if cell == "" {
		return nil
	}
	var urls models.StringList
	for _, name := range strings.Split(cell, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		url, err := a.assets.UploadFromBundle(ctx, bundle, name, folder)
		if err != nil {
			group.Warnings = append(group.Warnings,
				"Additional image skipped for '"+group.Name+"': "+err.Error())
			continue
		}
		urls = append(urls, url)
	}
	return urls
}

// applyDiscountFields copies the discount window through verbatim. Bad
// cells are ignored rather than failing the product; the single-product
// revise-rate endpoint is the validated path for discount edits.
func (a *Assembler) applyDiscountFields(row Row, price **float64, start, end **time.Time, bulk *models.BulkTierList, comeBack *bool) {
	if v, ok := parseFloatCell(row.Get(colDiscountPrice)); ok {
		*price = &v
	}
	if t, ok := parseDateCell(row.Get(colDiscountStart)); ok {
		*start = &t
	}
	if t, ok := parseDateCell(row.Get(colDiscountEnd)); ok {
		*end = &t
	}
	*bulk = parseBulkPricingCell(row.Get(colDiscountBulk))

	*comeBack = true
	if raw := row.Get(colComeBackToPrice); raw != "" {
		*comeBack = ParseBoolCell(raw)
	}
}

func parseFloatCell(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	v, err := json.Number(raw).Float64()
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseIntCell(raw string) (int, bool) {
	v, ok := parseFloatCell(raw)
	if !ok {
		return 0, false
	}
	return int(v), true
}

// dateCellLayouts are the formats the sheet template and common exports
// produce.
var dateCellLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"02/01/2006",
	"2006-01-02 15:04:05",
}

func parseDateCell(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateCellLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseBulkPricingCell parses the bulk pricing cell, a JSON array of
// {wholesalePrice, quantity} objects with unpredictable number quoting.
// Tiers missing either field are dropped.
func parseBulkPricingCell(raw string) models.BulkTierList {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "[]" {
		return nil
	}
	var tiers []struct {
		WholesalePrice json.RawMessage `json:"wholesalePrice"`
		Quantity       json.RawMessage `json:"quantity"`
	}
	if err := json.Unmarshal([]byte(raw), &tiers); err != nil {
		return nil
	}
	var out models.BulkTierList
	for _, tier := range tiers {
		if isEmptyCell(tier.WholesalePrice) || isEmptyCell(tier.Quantity) {
			continue
		}
		wholesale, werr := parseCellNumber(tier.WholesalePrice)
		quantity, qerr := parseCellNumber(tier.Quantity)
		if werr != nil || qerr != nil {
			continue
		}
		out = append(out, models.BulkTier{WholesalePrice: wholesale, Quantity: int(quantity)})
	}
	return out
}
