// Package pricing computes cart subtotals, per-category tax breakdowns and
// grand totals. All functions are pure and keep full decimal precision;
// rounding to display digits happens at presentation time only.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/tallyho/tally/internal/model"
)

var oneHundred = decimal.NewFromInt(100)

// TaxLine is one category's share of the tax total.
type TaxLine struct {
	CategoryName string
	Amount       decimal.Decimal
}

// Subtotal sums unit price times quantity over the given items.
func Subtotal(items []model.LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// TaxBreakdown groups items by category and computes each group's tax as
// groupSubtotal * taxRatePercent / 100. Lines follow category order.
// Categories with no matching items are omitted rather than emitted as
// zero entries, and items referencing an unknown category contribute
// nothing — a dangling reference is tolerated, not an error.
func TaxBreakdown(items []model.LineItem, categories []model.Category) []TaxLine {
	groups := make(map[string]decimal.Decimal, len(categories))
	for _, item := range items {
		groups[item.CategoryID] = groups[item.CategoryID].Add(item.LineTotal())
	}

	lines := make([]TaxLine, 0, len(groups))
	for _, cat := range categories {
		groupSubtotal, ok := groups[cat.ID]
		if !ok {
			continue
		}
		lines = append(lines, TaxLine{
			CategoryName: cat.Name,
			Amount:       groupSubtotal.Mul(cat.TaxRatePercent).Div(oneHundred),
		})
	}
	return lines
}

// TotalTax sums the amounts of TaxBreakdown.
func TotalTax(items []model.LineItem, categories []model.Category) decimal.Decimal {
	total := decimal.Zero
	for _, line := range TaxBreakdown(items, categories) {
		total = total.Add(line.Amount)
	}
	return total
}

// GrandTotal returns Subtotal plus TotalTax.
func GrandTotal(items []model.LineItem, categories []model.Category) decimal.Decimal {
	return Subtotal(items).Add(TotalTax(items, categories))
}
