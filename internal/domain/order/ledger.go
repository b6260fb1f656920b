package order

import "github.com/shopspring/decimal"

// Recompute returns the sum of the subtotals of the order's live items, or
// zero when there are none. It reads nothing but the items and has no side
// effects, so calling it twice without a mutation in between returns the
// same value.
func Recompute(o *Order) decimal.Decimal {
	total := decimal.Zero
	for i := range o.items {
		total = total.Add(o.items[i].Subtotal())
	}
	return total
}
