package cart

import "github.com/shopspring/decimal"

// PendingProduct holds a size-priced product between the tap on the POS
// grid and the size confirmation. Cancelling simply discards the value; the
// cart is never touched until Confirm.
type PendingProduct struct {
	Product   ProductSnapshot
	Available decimal.Decimal
	Selected  string
}

type SizeOption struct {
	Label    string
	Price    decimal.Decimal
	Disabled bool
}

func NewPendingProduct(p ProductSnapshot, stock StockView) PendingProduct {
	return PendingProduct{
		Product:   p,
		Available: stock.Available(p),
	}
}

// Options lists the size choices in sorted order. Every option is disabled
// when the product has no availability, which also blocks Confirm.
func (pp PendingProduct) Options() []SizeOption {
	soldOut := pp.Available.LessThanOrEqual(decimal.Zero)
	labels := pp.Product.SizeLabels()
	options := make([]SizeOption, 0, len(labels))
	for _, label := range labels {
		options = append(options, SizeOption{
			Label:    label,
			Price:    pp.Product.SizePrices[label],
			Disabled: soldOut,
		})
	}
	return options
}

// Select records a size choice. Unknown labels re-prompt.
func (pp PendingProduct) Select(label string) (PendingProduct, error) {
	if _, ok := pp.Product.SizePrices[label]; !ok {
		return pp, &SizeRequiredError{ProductName: pp.Product.Name}
	}
	pp.Selected = label
	return pp, nil
}

// Confirm commits the pending product to the cart with the selected size.
func Confirm(c Cart, pp PendingProduct, stock StockView) (Cart, error) {
	if pp.Available.LessThanOrEqual(decimal.Zero) {
		return c, &OutOfStockError{ProductName: pp.Product.Name}
	}
	if pp.Selected == "" {
		return c, &SizeRequiredError{ProductName: pp.Product.Name}
	}
	return AddProduct(c, pp.Product, pp.Selected, stock)
}
