package cart

import "github.com/shopspring/decimal"

var oneHundred = decimal.NewFromInt(100)

// EffectiveUnitPrice is the size-specific price when a selected size exists
// in the product's size map, otherwise the base price.
func EffectiveUnitPrice(li LineItem) decimal.Decimal {
	if li.SelectedSize != "" {
		if price, ok := li.Product.SizePrices[li.SelectedSize]; ok {
			return price
		}
	}
	return li.Product.Price
}

// LineSubtotal is the pre-discount line value.
func LineSubtotal(li LineItem) decimal.Decimal {
	return EffectiveUnitPrice(li).Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// LineDiscountAmount resolves the line's own discount: a flat amount, or a
// percentage of the line's pre-discount subtotal.
func LineDiscountAmount(li LineItem) decimal.Decimal {
	if li.DiscountType == DiscountPercentage {
		return LineSubtotal(li).Mul(li.Discount).Div(oneHundred)
	}
	return li.Discount
}

// LineTotal is the line subtotal net of its own discount, floored at zero.
func LineTotal(li LineItem) decimal.Decimal {
	total := LineSubtotal(li).Sub(LineDiscountAmount(li))
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}

// Subtotal sums line totals. Item-level discounts are baked in before the
// order-level discount applies.
func Subtotal(c Cart) decimal.Decimal {
	sum := decimal.Zero
	for _, li := range c.Items {
		sum = sum.Add(LineTotal(li))
	}
	return sum
}

// OriginalSubtotal sums undiscounted line values, for receipt breakdowns.
func OriginalSubtotal(c Cart) decimal.Decimal {
	sum := decimal.Zero
	for _, li := range c.Items {
		sum = sum.Add(LineSubtotal(li))
	}
	return sum
}

// TotalItemDiscounts sums the per-line discount amounts.
func TotalItemDiscounts(c Cart) decimal.Decimal {
	sum := decimal.Zero
	for _, li := range c.Items {
		sum = sum.Add(LineDiscountAmount(li))
	}
	return sum
}

// OrderDiscountAmount resolves the order-level discount against the
// post-item-discount subtotal.
func OrderDiscountAmount(c Cart) decimal.Decimal {
	if c.DiscountType == DiscountPercentage {
		return Subtotal(c).Mul(c.Discount).Div(oneHundred)
	}
	return c.Discount
}

// GrandTotal is the subtotal minus the order discount, floored at zero.
func GrandTotal(c Cart) decimal.Decimal {
	total := Subtotal(c).Sub(OrderDiscountAmount(c))
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}

// ChangeDue is the excess of the tendered amount over the grand total.
func ChangeDue(amountPaid, grandTotal decimal.Decimal) decimal.Decimal {
	change := amountPaid.Sub(grandTotal)
	if change.IsNegative() {
		return decimal.Zero
	}
	return change
}
