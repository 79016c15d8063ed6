package cart

import "github.com/shopspring/decimal"

// AddProduct adds one unit of the product to the cart, merging into an
// existing line with the same (product, size) key. Stock is checked against
// the snapshot at call time: a brand-new line requires availability > 0, an
// increment requires the new quantity to fit within availability.
//
// Size-priced products must arrive with a size already resolved (see the
// size gate in sizegate.go).
func AddProduct(c Cart, p ProductSnapshot, size string, stock StockView) (Cart, error) {
	if p.HasSizes() && size == "" {
		return c, &SizeRequiredError{ProductName: p.Name}
	}
	if !p.HasSizes() {
		size = ""
	}

	key := KeyFor(p, size)
	available := stock.Available(p)

	for i, li := range c.Items {
		if li.Key() != key {
			continue
		}
		newQuantity := li.Quantity + 1
		if decimal.NewFromInt(int64(newQuantity)).GreaterThan(available) {
			return c, &InsufficientStockError{ProductName: p.Name, Unit: p.Unit, Available: available}
		}
		items := c.cloneItems()
		items[i].Quantity = newQuantity
		c.Items = items
		return c, nil
	}

	if available.LessThanOrEqual(decimal.Zero) {
		return c, &OutOfStockError{ProductName: p.Name}
	}

	items := c.cloneItems()
	items = append(items, LineItem{
		Product:      p,
		Quantity:     1,
		SelectedSize: size,
		Discount:     decimal.Zero,
		DiscountType: DiscountAmount,
	})
	c.Items = items
	return c, nil
}

// SetQuantity edits a line's quantity directly. Targets below 1 are a
// silent no-op (the UI removes lines explicitly); targets above availability
// are rejected without touching the line.
func SetQuantity(c Cart, key LineKey, quantity int, stock StockView) (Cart, error) {
	if quantity < 1 {
		return c, nil
	}

	for i, li := range c.Items {
		if li.Key() != key {
			continue
		}
		available := stock.Available(li.Product)
		if decimal.NewFromInt(int64(quantity)).GreaterThan(available) {
			return c, &InsufficientStockError{ProductName: li.Product.Name, Unit: li.Product.Unit, Available: available}
		}
		items := c.cloneItems()
		items[i].Quantity = quantity
		c.Items = items
		return c, nil
	}
	return c, &LineNotFoundError{Key: key}
}

// RemoveLine drops a line entirely. Removing an absent line is a no-op.
func RemoveLine(c Cart, key LineKey) Cart {
	items := make([]LineItem, 0, len(c.Items))
	for _, li := range c.Items {
		if li.Key() != key {
			items = append(items, li)
		}
	}
	c.Items = items
	return c
}

// SetItemDiscount applies a per-line discount.
func SetItemDiscount(c Cart, key LineKey, value decimal.Decimal, discountType DiscountType) (Cart, error) {
	if value.IsNegative() {
		return c, &InvalidDiscountError{Value: value}
	}
	for i, li := range c.Items {
		if li.Key() != key {
			continue
		}
		items := c.cloneItems()
		items[i].Discount = value
		items[i].DiscountType = discountType
		c.Items = items
		return c, nil
	}
	return c, &LineNotFoundError{Key: key}
}

// SetOrderDiscount applies the order-level discount.
func SetOrderDiscount(c Cart, value decimal.Decimal, discountType DiscountType) (Cart, error) {
	if value.IsNegative() {
		return c, &InvalidDiscountError{Value: value}
	}
	c.Discount = value
	c.DiscountType = discountType
	return c, nil
}

func SetTable(c Cart, tableID *int64) Cart {
	c.TableID = tableID
	return c
}

func SetDiningOption(c Cart, option DiningOption) Cart {
	c.DiningOption = option
	return c
}

// Clear resets the cart to empty under a fresh order number, dropping any
// draft binding.
func Clear(c Cart, orderNumber string) Cart {
	return New(orderNumber)
}
