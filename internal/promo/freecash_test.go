package promo

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/models"
)

var now = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func activeGrant(amount, minimum float64) models.FreeCash {
	return models.FreeCash{
		ID:            uuid.New(),
		UserID:        uuid.New(),
		Amount:        amount,
		MinimumAmount: minimum,
		StartDate:     now.Add(-24 * time.Hour),
		EndDate:       now.Add(24 * time.Hour),
	}
}

func line(productID string, unitPrice float64, quantity int) models.CartLine {
	return models.CartLine{ProductID: productID, UnitPrice: unitPrice, Quantity: quantity}
}

func TestEligible_UsedExpiredAndWindow(t *testing.T) {
	scope := ProductScope{MainCategoryID: uuid.New()}
	l := line("p1", 100, 1)

	used := activeGrant(50, 0)
	used.IsUsed = true
	assert.False(t, Eligible(&used, l, scope, true, now))

	expired := activeGrant(50, 0)
	expired.IsExpired = true
	assert.False(t, Eligible(&expired, l, scope, true, now))

	early := activeGrant(50, 0)
	early.StartDate = now.Add(time.Hour)
	assert.False(t, Eligible(&early, l, scope, true, now))

	late := activeGrant(50, 0)
	late.EndDate = now.Add(-time.Hour)
	assert.False(t, Eligible(&late, l, scope, true, now))

	open := activeGrant(50, 0)
	assert.True(t, Eligible(&open, l, scope, true, now))
}

func TestEligible_MinimumAmountIsPerLineTotal(t *testing.T) {
	grant := activeGrant(50, 200)
	scope := ProductScope{}

	// 100 * 1 < 200
	assert.False(t, Eligible(&grant, line("p1", 100, 1), scope, true, now))
	// 100 * 2 >= 200: quantity counts
	assert.True(t, Eligible(&grant, line("p1", 100, 2), scope, true, now))
}

func TestEligible_CategoryScope(t *testing.T) {
	kitchen := uuid.New()
	drinkware := uuid.New()
	other := uuid.New()

	grant := activeGrant(50, 0)
	grant.CategoryID = &kitchen

	assert.True(t, Eligible(&grant, line("p1", 10, 1), ProductScope{MainCategoryID: kitchen}, true, now))
	assert.False(t, Eligible(&grant, line("p2", 10, 1), ProductScope{MainCategoryID: other}, true, now))

	grant.SubCategoryID = &drinkware
	assert.False(t, Eligible(&grant, line("p1", 10, 1), ProductScope{MainCategoryID: kitchen}, true, now))
	assert.True(t, Eligible(&grant, line("p1", 10, 1), ProductScope{MainCategoryID: kitchen, SubCategoryID: &drinkware}, true, now))
	assert.False(t, Eligible(&grant, line("p1", 10, 1), ProductScope{MainCategoryID: kitchen, SubCategoryID: &other}, true, now))
}

func TestEligible_AllProductsIgnoresScopeLookup(t *testing.T) {
	grant := activeGrant(50, 0)
	// Even an unresolvable product is eligible when the grant is global.
	assert.True(t, Eligible(&grant, line("gone", 10, 1), ProductScope{}, false, now))
}

func TestEligible_MissingProductFailsScopedGrant(t *testing.T) {
	kitchen := uuid.New()
	grant := activeGrant(50, 0)
	grant.CategoryID = &kitchen
	assert.False(t, Eligible(&grant, line("gone", 10, 1), ProductScope{}, false, now))
}

func TestSelectGrant_FirstEligibleWinsWholeOrder(t *testing.T) {
	kitchen := uuid.New()
	garden := uuid.New()

	scoped := activeGrant(500, 0)
	scoped.CategoryID = &garden // no line matches this
	global := activeGrant(30, 0)

	lines := []models.CartLine{
		line("p1", 100, 1),
		line("p2", 50, 2),
	}
	lookup := func(string) (ProductScope, bool) {
		return ProductScope{MainCategoryID: kitchen}, true
	}

	app := SelectGrant([]models.FreeCash{scoped, global}, lines, lookup, now)
	require.NotNil(t, app)
	assert.Equal(t, global.ID, app.Grant.ID)
	assert.Equal(t, []int{0, 1}, app.EligibleLines)
	assert.Equal(t, 200.0, app.EligibleTotal)
	assert.Equal(t, 30.0, app.Amount)
}

func TestSelectGrant_AmountCappedAtEligibleTotal(t *testing.T) {
	grant := activeGrant(500, 0)
	lines := []models.CartLine{line("p1", 40, 2)}
	lookup := func(string) (ProductScope, bool) { return ProductScope{}, true }

	app := SelectGrant([]models.FreeCash{grant}, lines, lookup, now)
	require.NotNil(t, app)
	assert.Equal(t, 80.0, app.Amount)
}

func TestSelectGrant_NoEligibleLines(t *testing.T) {
	kitchen := uuid.New()
	grant := activeGrant(50, 0)
	grant.CategoryID = &kitchen

	lines := []models.CartLine{line("p1", 10, 1)}
	lookup := func(string) (ProductScope, bool) {
		return ProductScope{MainCategoryID: uuid.New()}, true
	}

	assert.Nil(t, SelectGrant([]models.FreeCash{grant}, lines, lookup, now))
}

func TestSelectGrant_PartiallyEligibleCart(t *testing.T) {
	kitchen := uuid.New()
	garden := uuid.New()
	grant := activeGrant(1000, 0)
	grant.CategoryID = &kitchen

	scopes := map[string]ProductScope{
		"pan":  {MainCategoryID: kitchen},
		"rake": {MainCategoryID: garden},
	}
	lookup := func(id string) (ProductScope, bool) {
		s, ok := scopes[id]
		return s, ok
	}
	lines := []models.CartLine{
		line("pan", 100, 1),
		line("rake", 200, 1),
	}

	app := SelectGrant([]models.FreeCash{grant}, lines, lookup, now)
	require.NotNil(t, app)
	assert.Equal(t, []int{0}, app.EligibleLines)
	assert.Equal(t, 100.0, app.EligibleTotal)
	assert.Equal(t, 100.0, app.Amount)
}
