package catalog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(index int, fields map[string]string) Row {
	return Row{Index: index, Fields: fields}
}

func TestGroupRows_MissingNameGoesToLedger(t *testing.T) {
	grouping := GroupRows([]Row{
		row(2, map[string]string{colProductName: "Mug"}),
		row(3, map[string]string{colProductName: "   "}),
		row(4, map[string]string{colPrice: "100"}),
	})

	require.Len(t, grouping.Groups, 1)
	require.Len(t, grouping.Failed, 2)
	assert.Equal(t, "Missing product name", grouping.Failed[0].Error)
	assert.Equal(t, []int{3}, grouping.Failed[0].RowsAffected)
	assert.Equal(t, []int{4}, grouping.Failed[1].RowsAffected)
}

func TestGroupRows_CaseInsensitiveCollapse(t *testing.T) {
	grouping := GroupRows([]Row{
		row(2, map[string]string{colProductName: "Mug"}),
		row(3, map[string]string{colProductName: "mug"}),
		row(4, map[string]string{colProductName: "MUG"}),
	})

	require.Len(t, grouping.Groups, 1)
	group := grouping.Groups[0]
	assert.Equal(t, "Mug", group.Name)
	assert.Equal(t, []int{2, 3, 4}, group.RowNumbers())
	assert.Empty(t, grouping.Failed)
}

func TestGroupRows_PreservesFileOrder(t *testing.T) {
	grouping := GroupRows([]Row{
		row(2, map[string]string{colProductName: "B"}),
		row(3, map[string]string{colProductName: "A"}),
		row(4, map[string]string{colProductName: "B"}),
	})

	require.Len(t, grouping.Groups, 2)
	assert.Equal(t, "B", grouping.Groups[0].Name)
	assert.Equal(t, "A", grouping.Groups[1].Name)
	assert.Equal(t, []int{2, 4}, grouping.Groups[0].RowNumbers())
}

func TestGroupRows_ConflictingDuplicateRowsWarn(t *testing.T) {
	grouping := GroupRows([]Row{
		row(2, map[string]string{colProductName: "Mug", colMainCategory: "Kitchen"}),
		row(3, map[string]string{colProductName: "Mug", colMainCategory: "Garden"}),
	})

	require.Len(t, grouping.Groups, 1)
	group := grouping.Groups[0]
	require.Len(t, group.Warnings, 1)
	assert.Contains(t, group.Warnings[0], "maincategory")
	assert.Contains(t, group.Warnings[0], "using first row value")
}

func TestGroupRows_BlankContinuationCellsAreNotConflicts(t *testing.T) {
	grouping := GroupRows([]Row{
		row(2, map[string]string{colProductName: "Mug", colMainCategory: "Kitchen"}),
		row(3, map[string]string{colProductName: "Mug"}),
	})

	require.Len(t, grouping.Groups, 1)
	assert.Empty(t, grouping.Groups[0].Warnings)
}

func TestSplitVariants_GroupsByColor(t *testing.T) {
	group := &ProductGroup{Name: "Shirt", Rows: []Row{
		row(2, map[string]string{colColorName: "Red"}),
		row(3, map[string]string{colColorName: "red"}),
		row(4, map[string]string{colColorName: "Blue"}),
	}}

	variants, err := SplitVariants(group)
	require.NoError(t, err)
	require.Len(t, variants, 2)
	assert.Equal(t, "Red", variants[0].Color)
	assert.Len(t, variants[0].Rows, 2)
	assert.Equal(t, "Blue", variants[1].Color)
}

func TestSplitVariants_MissingColorFailsProduct(t *testing.T) {
	group := &ProductGroup{Name: "Shirt", Rows: []Row{
		row(2, map[string]string{colColorName: "Red"}),
		row(3, map[string]string{}),
	}}

	_, err := SplitVariants(group)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Contains(t, err.Error(), "Missing variant color name")
}

func TestParseBoolCell(t *testing.T) {
	for _, truthy := range []string{"TRUE", "true", "True", "1", "yes", " true "} {
		assert.True(t, ParseBoolCell(truthy), truthy)
	}
	for _, falsy := range []string{"", "FALSE", "false", "0", "no", "junk"} {
		assert.False(t, ParseBoolCell(falsy), falsy)
	}
}
