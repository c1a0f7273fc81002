// Package model defines the core domain types for the shopping list.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category is a tax-rate-bearing grouping for line items. The color tag is
// an opaque string; mapping it to a visual treatment is the presentation
// layer's business.
type Category struct {
	CreatedAt      time.Time       `json:"createdAt"`
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	ColorTag       string          `json:"colorTag"`
	TaxRatePercent decimal.Decimal `json:"taxRatePercent"`
}
