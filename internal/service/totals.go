package service

import (
	"github.com/shopspring/decimal"
)

// LineAmount is the money-relevant slice of an order line.
type LineAmount struct {
	UnitPrice decimal.Decimal
	Quantity  int32
}

// Totals holds the derived money fields of an order. The identity
// Total == Subtotal + Tax - Discount always holds (Total clamped at
// zero when an oversized discount would take it negative).
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// TotalsCalculator derives order totals from a line set. The tax rate
// is fixed at construction; there is no mutable runtime setting.
type TotalsCalculator struct {
	taxRate decimal.Decimal
}

func NewTotalsCalculator(taxRate decimal.Decimal) TotalsCalculator {
	return TotalsCalculator{taxRate: taxRate}
}

// Compute derives subtotal, tax and total for the given lines and
// discount. Callers re-invoke it after every line mutation so stored
// totals never drift from the line set.
func (c TotalsCalculator) Compute(lines []LineAmount, discount decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.UnitPrice.Mul(decimal.NewFromInt32(l.Quantity)))
	}

	tax := subtotal.Mul(c.taxRate)
	total := subtotal.Add(tax).Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Discount: discount,
		Total:    total,
	}
}
