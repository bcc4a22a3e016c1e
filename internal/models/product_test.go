package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func flatProduct(price float64) *Product {
	return &Product{Name: "Mug", Price: &price, ComeBackToOriginalPrice: true}
}

func TestEffectivePrice_NoDiscount(t *testing.T) {
	p := flatProduct(100)
	assert.Equal(t, 100.0, p.EffectivePrice(time.Now()))
}

func TestEffectivePrice_InsideWindow(t *testing.T) {
	p := flatProduct(100)
	discount := 80.0
	start := day(10)
	end := day(20)
	p.DiscountPrice = &discount
	p.DiscountStartDate = &start
	p.DiscountEndDate = &end

	assert.Equal(t, 80.0, p.EffectivePrice(day(15)))
	assert.Equal(t, 100.0, p.EffectivePrice(day(5)))
}

func TestEffectivePrice_AfterWindow(t *testing.T) {
	p := flatProduct(100)
	discount := 80.0
	start := day(10)
	end := day(20)
	p.DiscountPrice = &discount
	p.DiscountStartDate = &start
	p.DiscountEndDate = &end

	// Reverts to base price when the window closes
	assert.Equal(t, 100.0, p.EffectivePrice(day(25)))

	// Unless the discount is flagged permanent
	p.ComeBackToOriginalPrice = false
	assert.Equal(t, 80.0, p.EffectivePrice(day(25)))
}

func TestDefaultVariant(t *testing.T) {
	p := &Product{HasVariants: true, Variants: VariantList{
		{Name: "Red"},
		{Name: "Black", IsDefault: true},
	}}
	v := p.DefaultVariant()
	assert.NotNil(t, v)
	assert.Equal(t, "Black", v.Name)

	assert.Nil(t, flatProduct(10).DefaultVariant())
}

func TestImageURLs_CollectsAllLevels(t *testing.T) {
	main := "https://cdn/main.jpg"
	p := &Product{
		MainImage:        &main,
		AdditionalImages: StringList{"https://cdn/extra.jpg", ""},
		Variants: VariantList{
			{
				Name:  "Black",
				Image: "https://cdn/variant.jpg",
				MoreDetails: []SizeDetail{
					{AdditionalImages: StringList{"https://cdn/size.jpg"}},
				},
			},
		},
	}

	urls := p.ImageURLs()
	assert.ElementsMatch(t, []string{
		"https://cdn/main.jpg",
		"https://cdn/extra.jpg",
		"https://cdn/variant.jpg",
		"https://cdn/size.jpg",
	}, urls)
}

func TestCartSubtotal(t *testing.T) {
	cart := &Cart{Items: CartLineList{
		{UnitPrice: 100, Quantity: 2},
		{UnitPrice: 50, Quantity: 1},
	}}
	assert.Equal(t, 250.0, cart.Subtotal())
}
