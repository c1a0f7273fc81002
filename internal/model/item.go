package model

import "github.com/shopspring/decimal"

// LineItem is a single cart entry. CategoryID references a Category by id
// but is not enforced as a foreign key; an item whose category has
// disappeared stays visible and simply attracts no tax.
type LineItem struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	CategoryID string          `json:"categoryId"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	Quantity   int             `json:"quantity"`
	Completed  bool            `json:"completed"`
}

// LineTotal returns unit price times quantity.
func (li LineItem) LineTotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}
