package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CompletedList is the immutable snapshot produced when a cart is finished.
// Totals are captured at completion time so later category edits never
// rewrite history.
type CompletedList struct {
	CompletedAt time.Time       `json:"completedAt"`
	ID          string          `json:"id"`
	Items       []LineItem      `json:"items"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	TaxTotal    decimal.Decimal `json:"taxTotal"`
	GrandTotal  decimal.Decimal `json:"grandTotal"`
}

// ItemCount returns the number of line entries in the snapshot.
func (cl CompletedList) ItemCount() int {
	return len(cl.Items)
}
