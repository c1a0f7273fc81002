package shop

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tallyho/tally/internal/model"
)

// nycCombinedRate is the NYC combined sales tax rate applied to taxable
// default categories.
var nycCombinedRate = decimal.RequireFromString("8.875")

// DefaultCategories returns the categories seeded on first run, in the
// order they are presented: groceries and medication are untaxed, the rest
// carry the combined rate.
func DefaultCategories() []model.Category {
	now := time.Now()
	return []model.Category{
		{ID: uuid.NewString(), Name: "Food", ColorTag: "green", TaxRatePercent: decimal.Zero, CreatedAt: now},
		{ID: uuid.NewString(), Name: "Medication", ColorTag: "blue", TaxRatePercent: decimal.Zero, CreatedAt: now},
		{ID: uuid.NewString(), Name: "Cleaning", ColorTag: "yellow", TaxRatePercent: nycCombinedRate, CreatedAt: now},
		{ID: uuid.NewString(), Name: "Other", ColorTag: "gray", TaxRatePercent: nycCombinedRate, CreatedAt: now},
	}
}
