package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/models"
)

type assemblerFixture struct {
	store     *fakeCategoryStore
	assets    *fakeAssetStore
	assembler *Assembler
	kitchen   *models.Category
	cookware  *models.Category
	garden    *models.Category
}

func newAssemblerFixture(t *testing.T) *assemblerFixture {
	t.Helper()
	store := newFakeCategoryStore()
	kitchen := store.add("Kitchen", nil)
	cookware := store.add("Cookware", &kitchen.ID)
	garden := store.add("Garden", nil)

	assets := &fakeAssetStore{}
	resolver := NewResolver(assets, testLogger())
	tree := NewTreeService(store, newFakeProductStore(), resolver, testLogger())
	return &assemblerFixture{
		store:     store,
		assets:    assets,
		assembler: NewAssembler(tree, resolver, testLogger()),
		kitchen:   kitchen,
		cookware:  cookware,
		garden:    garden,
	}
}

func (f *assemblerFixture) assemble(t *testing.T, rows []Row) (*models.Product, *ProductGroup, error) {
	t.Helper()
	grouping := GroupRows(rows)
	require.Len(t, grouping.Groups, 1)
	group := grouping.Groups[0]
	product, err := f.assembler.Assemble(context.Background(), "t1", group, &Bundle{}, "products")
	return product, group, err
}

func TestAssemble_FlatProduct(t *testing.T) {
	f := newAssemblerFixture(t)

	product, _, err := f.assemble(t, []Row{
		row(2, map[string]string{
			colProductName:  "Mug",
			colMainCategory: "Kitchen",
			colSubCategory:  "Cookware",
			colDescription:  "A mug",
			colPrice:        "100",
			colStock:        "5",
			colBulkPricing:  `[{"wholesalePrice":90,"quantity":10}]`,
		}),
	})
	require.NoError(t, err)

	assert.Equal(t, "Mug", product.Name)
	assert.Equal(t, f.kitchen.ID, product.MainCategoryID)
	require.NotNil(t, product.SubCategoryID)
	assert.Equal(t, f.cookware.ID, *product.SubCategoryID)
	assert.Equal(t, "Kitchen > Cookware", product.CategoryPath)
	assert.False(t, product.HasVariants)
	assert.Equal(t, models.PricingTypeNormal, product.PricingType)
	require.NotNil(t, product.Price)
	assert.Equal(t, 100.0, *product.Price)
	require.NotNil(t, product.Stock)
	assert.Equal(t, 5, *product.Stock)
	require.Len(t, product.BulkPricing, 1)
	assert.True(t, product.ComeBackToOriginalPrice)
	assert.True(t, product.IsActive)
}

func TestAssemble_DuplicateRowsFirstRowWins(t *testing.T) {
	f := newAssemblerFixture(t)

	product, group, err := f.assemble(t, []Row{
		row(2, map[string]string{colProductName: "Mug", colMainCategory: "Kitchen", colPrice: "100", colStock: "5"}),
		row(3, map[string]string{colProductName: "Mug", colMainCategory: "Kitchen", colPrice: "100", colStock: "5"}),
	})
	require.NoError(t, err)

	assert.Equal(t, 100.0, *product.Price)
	assert.Equal(t, []int{2, 3}, group.RowNumbers())
}

func TestAssemble_MainCategoryNotFound(t *testing.T) {
	f := newAssemblerFixture(t)

	_, _, err := f.assemble(t, []Row{
		row(2, map[string]string{colProductName: "Mug", colMainCategory: "Nope", colPrice: "1"}),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Main category not found: Nope")
}

func TestAssemble_MainCategoryMustBeRoot(t *testing.T) {
	f := newAssemblerFixture(t)

	// Cookware exists but is not a root category.
	_, _, err := f.assemble(t, []Row{
		row(2, map[string]string{colProductName: "Mug", colMainCategory: "Cookware", colPrice: "1"}),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Main category not found: Cookware")
}

func TestAssemble_SubCategoryAncestry(t *testing.T) {
	f := newAssemblerFixture(t)

	// Cookware lives under Kitchen, not Garden.
	_, _, err := f.assemble(t, []Row{
		row(2, map[string]string{colProductName: "Mug", colMainCategory: "Garden", colSubCategory: "Cookware", colPrice: "1"}),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Contains(t, err.Error(), "Cookware")
	assert.Contains(t, err.Error(), "Garden")
}

func TestAssemble_SubCategoryNotFound(t *testing.T) {
	f := newAssemblerFixture(t)

	_, _, err := f.assemble(t, []Row{
		row(2, map[string]string{colProductName: "Mug", colMainCategory: "Kitchen", colSubCategory: "Ghost", colPrice: "1"}),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Sub category not found: Ghost")
}

func TestAssemble_VariantsAndDimensionsAreMutuallyExclusive(t *testing.T) {
	f := newAssemblerFixture(t)

	_, _, err := f.assemble(t, []Row{
		row(2, map[string]string{
			colProductName:  "Mug",
			colMainCategory: "Kitchen",
			colHasVariants:  "TRUE",
			colColorName:    "Red",
			colDimensions:   `[{"1*1*1":"250"}]`,
			colPrice:        "1",
		}),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Contains(t, err.Error(), "dimension pricing")
}

func TestAssemble_DimensionsOnLaterVariantRowStillFatal(t *testing.T) {
	f := newAssemblerFixture(t)

	_, _, err := f.assemble(t, []Row{
		row(2, map[string]string{
			colProductName:  "Mug",
			colMainCategory: "Kitchen",
			colHasVariants:  "TRUE",
			colColorName:    "Red",
			colPrice:        "1",
		}),
		row(3, map[string]string{
			colProductName: "Mug",
			colColorName:   "Blue",
			colDimensions:  `[{"1*1*1":"250"}]`,
			colPrice:       "2",
		}),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Contains(t, err.Error(), "dimension pricing")
}

func TestAssemble_DynamicDimensions(t *testing.T) {
	f := newAssemblerFixture(t)

	product, _, err := f.assemble(t, []Row{
		row(2, map[string]string{
			colProductName:  "Poster",
			colMainCategory: "Kitchen",
			colDimensions:   `[{"1*1*1":"250"}]`,
		}),
	})
	require.NoError(t, err)

	assert.True(t, product.HasDimensions)
	assert.Equal(t, models.PricingTypeDynamic, product.PricingType)
	require.Len(t, product.Dimensions, 1)
	assert.Equal(t, 250.0, product.Dimensions[0].Price)
	// Flat pricing fields stay empty outside normal mode.
	assert.Nil(t, product.Price)
	assert.Nil(t, product.Stock)
}

func TestAssemble_VariantFanOut(t *testing.T) {
	f := newAssemblerFixture(t)

	product, group, err := f.assemble(t, []Row{
		row(2, map[string]string{
			colProductName: "Shirt", colMainCategory: "Kitchen", colHasVariants: "TRUE",
			colColorName: "Red", colIsDefault: "TRUE",
			colLength: "10", colBreadth: "8", colUnit: "cm",
			colPrice: "100", colStock: "3",
		}),
		row(3, map[string]string{
			colProductName: "Shirt", colMainCategory: "Kitchen", colHasVariants: "TRUE",
			colColorName: "Red",
			colLength:    "12", colBreadth: "10", colUnit: "cm",
			colPrice: "120", colStock: "2",
		}),
		row(4, map[string]string{
			colProductName: "Shirt", colMainCategory: "Kitchen", colHasVariants: "TRUE",
			colColorName: "Blue",
			colPrice:     "110", colStock: "1",
		}),
	})
	require.NoError(t, err)
	assert.Empty(t, group.Warnings)

	assert.True(t, product.HasVariants)
	require.Len(t, product.Variants, 2)

	red := product.Variants[0]
	assert.Equal(t, "Red", red.Name)
	assert.True(t, red.IsDefault)
	require.Len(t, red.MoreDetails, 2)
	assert.Equal(t, 10.0, red.MoreDetails[0].Length)
	assert.Equal(t, 100.0, red.MoreDetails[0].Price)
	assert.Equal(t, 3, red.MoreDetails[0].Stock)
	assert.True(t, red.MoreDetails[0].IsActive)
	assert.Equal(t, 120.0, red.MoreDetails[1].Price)

	blue := product.Variants[1]
	assert.False(t, blue.IsDefault)
	require.Len(t, blue.MoreDetails, 1)
}

func TestAssemble_SecondDefaultVariantIsFatal(t *testing.T) {
	f := newAssemblerFixture(t)

	_, _, err := f.assemble(t, []Row{
		row(2, map[string]string{
			colProductName: "Shirt", colMainCategory: "Kitchen", colHasVariants: "TRUE",
			colColorName: "Red", colIsDefault: "TRUE", colPrice: "100",
		}),
		row(3, map[string]string{
			colProductName: "Shirt", colMainCategory: "Kitchen", colHasVariants: "TRUE",
			colColorName: "Blue", colIsDefault: "TRUE", colPrice: "110",
		}),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Contains(t, err.Error(), "Multiple default variants")
}

func TestAssemble_NoDefaultPromotesFirstVariant(t *testing.T) {
	f := newAssemblerFixture(t)

	product, group, err := f.assemble(t, []Row{
		row(2, map[string]string{
			colProductName: "Shirt", colMainCategory: "Kitchen", colHasVariants: "TRUE",
			colColorName: "Red", colPrice: "100",
		}),
		row(3, map[string]string{
			colProductName: "Shirt", colMainCategory: "Kitchen", colHasVariants: "TRUE",
			colColorName: "Blue", colPrice: "110",
		}),
	})
	require.NoError(t, err)

	assert.True(t, product.Variants[0].IsDefault)
	assert.False(t, product.Variants[1].IsDefault)
	require.Len(t, group.Warnings, 1)
	assert.Contains(t, group.Warnings[0], "first variant promoted")
}

func TestAssemble_MissingAdditionalImagesWarnNotFail(t *testing.T) {
	f := newAssemblerFixture(t)

	product, group, err := f.assemble(t, []Row{
		row(2, map[string]string{
			colProductName:  "Mug",
			colMainCategory: "Kitchen",
			colPrice:        "100",
			colAdditionalImages: "ghost.jpg, phantom.png",
		}),
	})
	require.NoError(t, err)

	assert.Empty(t, product.AdditionalImages)
	require.Len(t, group.Warnings, 2)
	assert.Contains(t, group.Warnings[0], "Additional image skipped")
}

func TestAssemble_MissingMainImageIsFatal(t *testing.T) {
	f := newAssemblerFixture(t)

	_, _, err := f.assemble(t, []Row{
		row(2, map[string]string{
			colProductName:  "Mug",
			colMainCategory: "Kitchen",
			colMainImage:    "ghost.jpg",
			colPrice:        "100",
		}),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestAssemble_DiscountFieldsCopiedWithoutValidation(t *testing.T) {
	f := newAssemblerFixture(t)

	// Discount above price: the import path copies verbatim.
	product, _, err := f.assemble(t, []Row{
		row(2, map[string]string{
			colProductName:     "Mug",
			colMainCategory:    "Kitchen",
			colPrice:           "100",
			colDiscountPrice:   "150",
			colDiscountStart:   "2026-01-01",
			colDiscountEnd:     "2026-02-01",
			colComeBackToPrice: "FALSE",
		}),
	})
	require.NoError(t, err)

	require.NotNil(t, product.DiscountPrice)
	assert.Equal(t, 150.0, *product.DiscountPrice)
	require.NotNil(t, product.DiscountStartDate)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), *product.DiscountStartDate)
	assert.False(t, product.ComeBackToOriginalPrice)
}

func TestAssemble_MissingPriceOnFlatProduct(t *testing.T) {
	f := newAssemblerFixture(t)

	_, _, err := f.assemble(t, []Row{
		row(2, map[string]string{colProductName: "Mug", colMainCategory: "Kitchen"}),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Contains(t, err.Error(), "price")
}
