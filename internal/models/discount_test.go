package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func day(d int) time.Time {
	return time.Date(2026, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestDiscount_SameScope(t *testing.T) {
	kitchen := uuid.New()
	garden := uuid.New()
	cookware := uuid.New()

	allProducts := &Discount{}
	kitchenWide := &Discount{CategoryID: &kitchen}
	kitchenCookware := &Discount{CategoryID: &kitchen, SubCategoryID: &cookware}
	gardenWide := &Discount{CategoryID: &garden}

	assert.True(t, allProducts.SameScope(&Discount{}))
	assert.False(t, allProducts.SameScope(kitchenWide))
	assert.True(t, kitchenWide.SameScope(&Discount{CategoryID: &kitchen}))
	assert.False(t, kitchenWide.SameScope(gardenWide))
	assert.False(t, kitchenWide.SameScope(kitchenCookware))
	assert.True(t, kitchenCookware.SameScope(&Discount{CategoryID: &kitchen, SubCategoryID: &cookware}))
}

func TestDiscount_Overlaps(t *testing.T) {
	d := &Discount{StartDate: day(10), EndDate: day(20)}

	assert.True(t, d.Overlaps(day(15), day(25)))
	assert.True(t, d.Overlaps(day(5), day(15)))
	assert.True(t, d.Overlaps(day(12), day(18)))
	assert.True(t, d.Overlaps(day(5), day(25)))
	assert.True(t, d.Overlaps(day(20), day(30)), "touching endpoints overlap")

	assert.False(t, d.Overlaps(day(21), day(30)))
	assert.False(t, d.Overlaps(day(1), day(9)))
}
