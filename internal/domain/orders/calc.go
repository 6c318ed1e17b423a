package orders

import (
	"atelier/internal/core/types"
)

// Totals are the persisted monetary fields of an order.
type Totals struct {
	Subtotal       types.Money
	DiscountAmount types.Money
	TaxAmount      types.Money
	Total          types.Money
}

// LineTotal returns unit_price * (1 - discount/100) rounded to cents.
func LineTotal(unitPrice, discountPercentage types.Money) types.Money {
	return types.Round2(unitPrice.Sub(types.Percent(unitPrice, discountPercentage)))
}

// ComputeTotals derives order totals from already rounded line totals.
//
// Each component is rounded before the next is derived from it, so the
// persisted values satisfy total == subtotal - discount + tax exactly.
func ComputeTotals(lineTotals []types.Money, discountPercentage types.Money) Totals {
	subtotal := types.Sum(lineTotals...)
	discount := types.Round2(types.Percent(subtotal, discountPercentage))
	tax := types.Round2(subtotal.Sub(discount).Mul(types.VATRate))

	return Totals{
		Subtotal:       subtotal,
		DiscountAmount: discount,
		TaxAmount:      tax,
		Total:          subtotal.Sub(discount).Add(tax),
	}
}
