package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWorkbook_TemplateHeadersNormalize(t *testing.T) {
	workbook := buildWorkbook(t, []string{"Product Name *", "Main Category *", "Sub Category", "Has Variants", "Price"}, [][]string{
		{"Mug", "Kitchen", "Cookware", "false", "100"},
	})

	rows, err := ParseWorkbook(workbook)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Mug", rows[0].Get(colProductName))
	assert.Equal(t, "Kitchen", rows[0].Get(colMainCategory))
	assert.Equal(t, "Cookware", rows[0].Get(colSubCategory))
	assert.Equal(t, "100", rows[0].Get(colPrice))
}

func TestParseWorkbook_CamelCaseHeadersNormalize(t *testing.T) {
	workbook := buildWorkbook(t, []string{"productName", "mainCategory", "price"}, [][]string{
		{"Mug", "Kitchen", "100"},
	})

	rows, err := ParseWorkbook(workbook)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Mug", rows[0].Get(colProductName))
	assert.Equal(t, "Kitchen", rows[0].Get(colMainCategory))
	assert.Equal(t, "100", rows[0].Get(colPrice))
}

func TestParseWorkbook_EmptyRowsSkippedAndIndexed(t *testing.T) {
	workbook := buildWorkbook(t, []string{"Product Name *", "Price"}, [][]string{
		{"Mug", "100"},
		{"", ""},
		{"Pan", "200"},
	})

	rows, err := ParseWorkbook(workbook)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 2, rows[0].Index)
	assert.Equal(t, 4, rows[1].Index)
	assert.Equal(t, "Pan", rows[1].Get(colProductName))
}
