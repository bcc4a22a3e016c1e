// Package promo evaluates promotional credit ("free cash") against cart
// lines at checkout time.
package promo

import (
	"time"

	"github.com/google/uuid"

	"storefront-service/internal/models"
)

// ProductScope is the resolved category placement of one cart line's
// product, looked up at evaluation time because cart lines only carry the
// product id.
type ProductScope struct {
	MainCategoryID uuid.UUID
	SubCategoryID  *uuid.UUID
}

// ScopeLookup resolves a product id to its category scope. A false return
// means the product no longer exists; its lines are never eligible.
type ScopeLookup func(productID string) (ProductScope, bool)

// Eligible reports whether one cart line can consume the grant at the
// given instant.
func Eligible(grant *models.FreeCash, line models.CartLine, scope ProductScope, ok bool, now time.Time) bool {
	if grant.IsUsed || grant.IsExpired {
		return false
	}
	if now.Before(grant.StartDate) || now.After(grant.EndDate) {
		return false
	}
	if line.Total() < grant.MinimumAmount {
		return false
	}
	if grant.AppliesToAllProducts() {
		return true
	}
	if !ok {
		return false
	}
	if scope.MainCategoryID != *grant.CategoryID {
		return false
	}
	if grant.SubCategoryID != nil {
		if scope.SubCategoryID == nil || *scope.SubCategoryID != *grant.SubCategoryID {
			return false
		}
	}
	return true
}

// Application is the outcome of matching a grant against a cart.
type Application struct {
	Grant *models.FreeCash
	// EligibleLines indexes into the evaluated cart lines.
	EligibleLines []int
	// EligibleTotal is the summed total of the eligible lines.
	EligibleTotal float64
	// Amount is the credit actually applied: the grant amount capped at
	// the eligible total.
	Amount float64
}

// SelectGrant picks the first grant with at least one eligible line.
// Consumption is all-or-nothing per order: the chosen grant covers the
// sum of every eligible line in this order and is then marked used by the
// caller; it is never split across orders.
func SelectGrant(grants []models.FreeCash, lines []models.CartLine, lookup ScopeLookup, now time.Time) *Application {
	for i := range grants {
		grant := &grants[i]

		var eligible []int
		var total float64
		for j, line := range lines {
			scope, ok := lookup(line.ProductID)
			if Eligible(grant, line, scope, ok, now) {
				eligible = append(eligible, j)
				total += line.Total()
			}
		}
		if len(eligible) == 0 {
			continue
		}

		amount := grant.Amount
		if amount > total {
			amount = total
		}
		return &Application{
			Grant:         grant,
			EligibleLines: eligible,
			EligibleTotal: total,
			Amount:        amount,
		}
	}
	return nil
}
