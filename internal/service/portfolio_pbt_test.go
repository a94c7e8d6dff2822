package service

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/swipe-trader/internal/models"
	"github.com/swipe-trader/internal/types"
)

// Property-based tests for the portfolio reconciliation arithmetic

func TestPortfolioReconciliationProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	token := models.Token{Address: "mint-pbt", Symbol: "PBT", Price: 2.5}

	// Property: after any sequence of buys and sells, no entry is left
	// with a non-positive or dust-sized holding
	properties.Property("no dust or negative holdings survive", prop.ForAll(
		func(deltas []float64) bool {
			portfolio := &models.Portfolio{Account: "pbt-account"}
			for _, delta := range deltas {
				if delta > types.DustEpsilon {
					applyFill(portfolio, &token, types.ActionBuy, delta)
				} else if delta < -types.DustEpsilon {
					applyFill(portfolio, &token, types.ActionSell, -delta)
				}
			}
			entry := portfolio.Entry(token.Address)
			return entry == nil || entry.HeldAmount > types.DustEpsilon
		},
		gen.SliceOf(gen.Float64Range(-5, 5)),
	))

	// Property: buying always grows the holding by exactly the fill
	properties.Property("buy increases holding by the fill amount", prop.ForAll(
		func(initial, fill float64) bool {
			portfolio := &models.Portfolio{
				Account: "pbt-account",
				Entries: []models.PortfolioEntry{
					{Token: token, HeldAmount: initial, HeldValueUSD: initial * token.Price},
				},
			}
			applyFill(portfolio, &token, types.ActionBuy, fill)
			entry := portfolio.Entry(token.Address)
			return entry != nil && entry.HeldAmount == initial+fill
		},
		gen.Float64Range(0.001, 1000),
		gen.Float64Range(0.001, 1000),
	))

	// Property: selling an untracked token never mutates the portfolio
	properties.Property("sell of untracked token is a no-op", prop.ForAll(
		func(amount float64) bool {
			portfolio := &models.Portfolio{Account: "pbt-account"}
			changed := applyFill(portfolio, &token, types.ActionSell, amount)
			return !changed && len(portfolio.Entries) == 0
		},
		gen.Float64Range(0.001, 1000),
	))

	properties.TestingRun(t)
}
