package cli

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tallyho/tally/internal/model"
	"github.com/tallyho/tally/internal/pricing"
)

// FormatAmount renders a decimal as dollars with two fractional digits.
// The engine keeps full precision; rounding happens only here.
func FormatAmount(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

// Receipt renders a completed trip as a boxed receipt: line items, the
// subtotal, one tax line per category that had items, and the grand
// total. The tax breakdown is recomputed from the snapshot so the lines
// always match the stored totals.
func Receipt(list model.CompletedList, categories []model.Category) string {
	var b strings.Builder

	for _, item := range list.Items {
		name := item.Name
		if item.Completed {
			name = CompletedStyle.Render(name)
		}
		fmt.Fprintf(&b, "%-28s %2d × %8s  %9s\n",
			name, item.Quantity, FormatAmount(item.UnitPrice), FormatAmount(item.LineTotal()))
	}

	b.WriteString(SubtleStyle.Render(strings.Repeat("─", 52)) + "\n")
	fmt.Fprintf(&b, "%-40s %11s\n", "Subtotal", FormatAmount(list.Subtotal))

	for _, line := range pricing.TaxBreakdown(list.Items, categories) {
		fmt.Fprintf(&b, "%-40s %11s\n",
			SubtleStyle.Render("Tax: "+line.CategoryName), FormatAmount(line.Amount))
	}

	fmt.Fprintf(&b, "%-40s %11s\n", BoldStyle.Render("Total"), BoldStyle.Render(FormatAmount(list.GrandTotal)))

	title := fmt.Sprintf("%s  %s", ReceiptIcon, list.CompletedAt.Format("Mon Jan 2 2006 15:04"))
	return RenderBox(title, strings.TrimRight(b.String(), "\n"))
}
