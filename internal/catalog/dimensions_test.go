package catalog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/models"
)

func TestParseDimensions_EmptyIsNormal(t *testing.T) {
	for _, raw := range []string{"", "  ", "[]"} {
		data, err := ParseDimensions(raw)
		require.NoError(t, err)
		assert.False(t, data.HasDimensions)
		assert.Equal(t, models.PricingTypeNormal, data.PricingType)
		assert.Empty(t, data.Dimensions)
		assert.Empty(t, data.StaticDimensions)
	}
}

func TestParseDimensions_DynamicMarker(t *testing.T) {
	data, err := ParseDimensions(`[{"1*1*1":"250"}]`)
	require.NoError(t, err)

	assert.True(t, data.HasDimensions)
	assert.Equal(t, models.PricingTypeDynamic, data.PricingType)
	require.Len(t, data.Dimensions, 1)
	assert.Equal(t, models.DimensionRecord{Length: 1, Breadth: 1, Height: 1, Price: 250}, data.Dimensions[0])
	assert.Empty(t, data.StaticDimensions)
}

func TestParseDimensions_StaticObjectValues(t *testing.T) {
	data, err := ParseDimensions(`[{"10*10*5":{"price":"300","stock":"20","bulkPricing":[{"wholesalePrice":"280","quantity":"10"}]}}]`)
	require.NoError(t, err)

	assert.Equal(t, models.PricingTypeStatic, data.PricingType)
	require.Len(t, data.StaticDimensions, 1)
	dim := data.StaticDimensions[0]
	assert.Equal(t, 10.0, dim.Length)
	assert.Equal(t, 10.0, dim.Breadth)
	assert.Equal(t, 5.0, dim.Height)
	assert.Equal(t, 300.0, dim.Price)
	assert.Equal(t, 20, dim.Stock)
	require.Len(t, dim.BulkPricing, 1)
	assert.Equal(t, models.BulkTier{WholesalePrice: 280, Quantity: 10}, dim.BulkPricing[0])
}

func TestParseDimensions_TwoSegmentKey(t *testing.T) {
	data, err := ParseDimensions(`[{"12*8":150}]`)
	require.NoError(t, err)

	require.Len(t, data.StaticDimensions, 1)
	dim := data.StaticDimensions[0]
	assert.Equal(t, 12.0, dim.Length)
	assert.Equal(t, 8.0, dim.Breadth)
	assert.Zero(t, dim.Height)
	assert.Equal(t, 150.0, dim.Price)
}

func TestParseDimensions_MultipleEntriesStayStatic(t *testing.T) {
	// The dynamic marker only wins when it is the sole entry.
	data, err := ParseDimensions(`[{"1*1*1":100},{"5*5*5":200}]`)
	require.NoError(t, err)

	assert.Equal(t, models.PricingTypeStatic, data.PricingType)
	assert.Len(t, data.StaticDimensions, 2)
}

func TestParseDimensions_InvalidKey(t *testing.T) {
	for _, raw := range []string{
		`[{"10":100}]`,
		`[{"a*b":100}]`,
		`[{"1*2*3*4":100}]`,
	} {
		_, err := ParseDimensions(raw)
		require.Error(t, err, raw)
		assert.True(t, errors.Is(err, ErrValidation), raw)
	}
}

func TestParseDimensions_MalformedJSON(t *testing.T) {
	_, err := ParseDimensions(`[{"10*10*5":`)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestParseDimensions_DropsIncompleteBulkTiers(t *testing.T) {
	data, err := ParseDimensions(`[{"10*10*5":{"price":300,"stock":5,"bulkPricing":[{"wholesalePrice":"","quantity":"10"},{"wholesalePrice":"250","quantity":""},{"wholesalePrice":"250","quantity":"10"}]}}]`)
	require.NoError(t, err)

	require.Len(t, data.StaticDimensions, 1)
	require.Len(t, data.StaticDimensions[0].BulkPricing, 1)
	assert.Equal(t, models.BulkTier{WholesalePrice: 250, Quantity: 10}, data.StaticDimensions[0].BulkPricing[0])
}
