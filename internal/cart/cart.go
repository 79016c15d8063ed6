package cart

import (
	"sort"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountAmount     DiscountType = "amount"
	DiscountPercentage DiscountType = "percentage"
)

type DiningOption string

const (
	DineIn   DiningOption = "dine-in"
	Takeaway DiningOption = "takeaway"
	Delivery DiningOption = "delivery"
)

// ProductSnapshot is the cart's read-only view of a catalog product.
// Prices arrive as canonical decimal strings and are parsed once at the
// service boundary; the cart never writes back to the catalog.
type ProductSnapshot struct {
	ID         int64
	Name       string
	Price      decimal.Decimal
	SizePrices map[string]decimal.Decimal
	Quantity   decimal.Decimal
	Unit       string
}

func (p ProductSnapshot) HasSizes() bool {
	return len(p.SizePrices) > 0
}

// SizeLabels returns the size options in lexicographic order. The source
// data carries no explicit ordering, so sorting keeps the gate deterministic.
func (p ProductSnapshot) SizeLabels() []string {
	labels := make([]string, 0, len(p.SizePrices))
	for label := range p.SizePrices {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// StockView maps product id to the quantity already committed to other
// orders. It is a point-in-time snapshot; see Available.
type StockView map[int64]decimal.Decimal

// Available is on-hand minus sold, floored at zero. Two terminals reading
// the same stale snapshot can both pass the admission check and oversell;
// that race is a known limitation of the client-side check.
func (v StockView) Available(p ProductSnapshot) decimal.Decimal {
	avail := p.Quantity.Sub(v[p.ID])
	if avail.IsNegative() {
		return decimal.Zero
	}
	return avail
}

// LineKey is the identity of a cart line. Two sizes of the same size-priced
// product are distinct lines; a sizeless product always collapses to one.
type LineKey struct {
	ProductID int64
	Size      string
}

func KeyFor(p ProductSnapshot, size string) LineKey {
	if p.HasSizes() {
		return LineKey{ProductID: p.ID, Size: size}
	}
	return LineKey{ProductID: p.ID}
}

type LineItem struct {
	Product      ProductSnapshot
	Quantity     int
	SelectedSize string
	Discount     decimal.Decimal
	DiscountType DiscountType
}

func (li LineItem) Key() LineKey {
	return KeyFor(li.Product, li.SelectedSize)
}

// Cart is the in-progress order. It is a plain value: commands return a new
// Cart and never mutate the receiver, so a failed operation leaves the
// caller's cart untouched.
type Cart struct {
	Items        []LineItem
	Discount     decimal.Decimal
	DiscountType DiscountType
	TableID      *int64
	DiningOption DiningOption
	OrderNumber  string

	// DraftID binds the cart to a persisted draft order; zero means unbound.
	DraftID int64
}

func New(orderNumber string) Cart {
	return Cart{
		Discount:     decimal.Zero,
		DiscountType: DiscountAmount,
		DiningOption: DineIn,
		OrderNumber:  orderNumber,
	}
}

func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

func (c Cart) Find(key LineKey) (LineItem, bool) {
	for _, li := range c.Items {
		if li.Key() == key {
			return li, true
		}
	}
	return LineItem{}, false
}

// cloneItems keeps commands pure: slices are copied before any in-place edit.
func (c Cart) cloneItems() []LineItem {
	items := make([]LineItem, len(c.Items))
	copy(items, c.Items)
	return items
}
