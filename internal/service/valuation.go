package service

import (
	"time"

	"github.com/shopspring/decimal"

	"kadig/internal/models"
)

var hundred = decimal.NewFromInt(100)

// Revalue derives the new valuation of h at the given unit price. Quantity
// falls back to 1 when unset or zero.
func Revalue(h models.Holding, price decimal.Decimal, now time.Time) models.Valuation {
	value := h.EffectiveQuantity().Mul(price)
	return models.Valuation{
		CurrentPrice: price,
		CurrentValue: value,
		GainPercent:  GainPercent(value, h.TotalInvested),
		UpdatedAt:    now,
	}
}

// GainPercent is (value - invested) / invested * 100, or 0 when nothing was
// invested.
func GainPercent(value, invested decimal.Decimal) decimal.Decimal {
	if !invested.IsPositive() {
		return decimal.Zero
	}
	return value.Sub(invested).Div(invested).Mul(hundred)
}

// Aggregate sums holdings per portfolio. Portfolios without holdings are not
// present in the result.
func Aggregate(holdings []models.Holding, now time.Time) map[string]models.PortfolioTotals {
	totals := map[string]models.PortfolioTotals{}
	for _, h := range holdings {
		t := totals[h.PortfolioID]
		t.TotalValue = t.TotalValue.Add(h.CurrentValue)
		t.TotalInvested = t.TotalInvested.Add(h.TotalInvested)
		totals[h.PortfolioID] = t
	}
	for id, t := range totals {
		t.TotalGain = t.TotalValue.Sub(t.TotalInvested)
		t.CDIPercent = GainPercent(t.TotalValue, t.TotalInvested)
		t.UpdatedAt = now
		totals[id] = t
	}
	return totals
}
