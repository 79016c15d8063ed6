package cart

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestAddProduct_MergesSameKey(t *testing.T) {
	stock := StockView{}
	p := plainProduct(1, "Espresso", "3.00")

	c := New("ORD-1")
	c, err := AddProduct(c, p, "", stock)
	if err != nil {
		t.Fatalf("first add: %v", err)
	}
	c, err = AddProduct(c, p, "", stock)
	if err != nil {
		t.Fatalf("second add: %v", err)
	}

	if len(c.Items) != 1 {
		t.Fatalf("expected 1 line, got %d", len(c.Items))
	}
	if c.Items[0].Quantity != 2 {
		t.Errorf("expected quantity 2, got %d", c.Items[0].Quantity)
	}
}

func TestAddProduct_DifferentSizesAreDistinctLines(t *testing.T) {
	stock := StockView{}
	p := sizedProduct(2, "Latte", map[string]string{"S": "2.50", "M": "3.00"})

	c := New("ORD-1")
	c, err := AddProduct(c, p, "S", stock)
	if err != nil {
		t.Fatalf("add S: %v", err)
	}
	c, err = AddProduct(c, p, "M", stock)
	if err != nil {
		t.Fatalf("add M: %v", err)
	}

	if len(c.Items) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(c.Items))
	}
}

func TestAddProduct_SizeRequiredForSizedProduct(t *testing.T) {
	stock := StockView{}
	p := sizedProduct(2, "Latte", map[string]string{"S": "2.50"})

	c := New("ORD-1")
	_, err := AddProduct(c, p, "", stock)
	var sizeErr *SizeRequiredError
	if !errors.As(err, &sizeErr) {
		t.Fatalf("expected SizeRequiredError, got %v", err)
	}
}

func TestAddProduct_OutOfStock(t *testing.T) {
	p := plainProduct(1, "Espresso", "3.00")
	p.Quantity = dec("5")
	stock := StockView{1: dec("5")}

	c := New("ORD-1")
	after, err := AddProduct(c, p, "", stock)
	var oos *OutOfStockError
	if !errors.As(err, &oos) {
		t.Fatalf("expected OutOfStockError, got %v", err)
	}
	if len(after.Items) != 0 {
		t.Errorf("cart mutated on rejected add")
	}
}

// Product with quantity 10 and 8 already sold leaves 2 available: two adds
// succeed, the third is rejected and the cart stays at quantity 2.
func TestAddProduct_InsufficientStockOnThirdAdd(t *testing.T) {
	p := plainProduct(3, "Croissant", "2.00")
	p.Quantity = dec("10")
	stock := StockView{3: dec("8")}

	c := New("ORD-1")
	var err error
	if c, err = AddProduct(c, p, "", stock); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if c, err = AddProduct(c, p, "", stock); err != nil {
		t.Fatalf("second add: %v", err)
	}

	after, err := AddProduct(c, p, "", stock)
	var insufficient *InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if !insufficient.Available.Equal(dec("2")) {
		t.Errorf("expected available 2 in error, got %s", insufficient.Available)
	}
	if after.Items[0].Quantity != 2 {
		t.Errorf("expected quantity to remain 2, got %d", after.Items[0].Quantity)
	}
}

func TestSetQuantity_BelowOneIsNoOp(t *testing.T) {
	stock := StockView{}
	p := plainProduct(1, "Espresso", "3.00")

	c := New("ORD-1")
	c, _ = AddProduct(c, p, "", stock)

	after, err := SetQuantity(c, KeyFor(p, ""), 0, stock)
	if err != nil {
		t.Fatalf("expected silent no-op, got %v", err)
	}
	if after.Items[0].Quantity != 1 {
		t.Errorf("expected quantity unchanged at 1, got %d", after.Items[0].Quantity)
	}
}

func TestSetQuantity_AboveAvailableRejected(t *testing.T) {
	p := plainProduct(1, "Espresso", "3.00")
	p.Quantity = dec("4")
	stock := StockView{1: dec("1")}

	c := New("ORD-1")
	c, _ = AddProduct(c, p, "", stock)

	after, err := SetQuantity(c, KeyFor(p, ""), 5, stock)
	var insufficient *InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if after.Items[0].Quantity != 1 {
		t.Errorf("line mutated on rejected edit: quantity %d", after.Items[0].Quantity)
	}
}

func TestSetQuantity_UnknownLine(t *testing.T) {
	c := New("ORD-1")
	_, err := SetQuantity(c, LineKey{ProductID: 42}, 2, StockView{})
	var notFound *LineNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected LineNotFoundError, got %v", err)
	}
}

func TestRemoveLine(t *testing.T) {
	stock := StockView{}
	p1 := plainProduct(1, "Espresso", "3.00")
	p2 := plainProduct(2, "Croissant", "2.00")

	c := New("ORD-1")
	c, _ = AddProduct(c, p1, "", stock)
	c, _ = AddProduct(c, p2, "", stock)

	c = RemoveLine(c, KeyFor(p1, ""))
	if len(c.Items) != 1 || c.Items[0].Product.ID != 2 {
		t.Fatalf("expected only product 2 to remain")
	}
}

func TestSetItemDiscount_RejectsNegative(t *testing.T) {
	stock := StockView{}
	p := plainProduct(1, "Espresso", "3.00")

	c := New("ORD-1")
	c, _ = AddProduct(c, p, "", stock)

	_, err := SetItemDiscount(c, KeyFor(p, ""), dec("-1"), DiscountAmount)
	var invalid *InvalidDiscountError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidDiscountError, got %v", err)
	}
}

func TestClearResetsEverything(t *testing.T) {
	stock := StockView{}
	p := plainProduct(1, "Espresso", "3.00")
	tableID := int64(4)

	c := New("ORD-1")
	c, _ = AddProduct(c, p, "", stock)
	c, _ = SetOrderDiscount(c, dec("5"), DiscountPercentage)
	c = SetTable(c, &tableID)
	c.DraftID = 9

	c = Clear(c, "ORD-2")
	if !c.IsEmpty() || c.DraftID != 0 || c.TableID != nil {
		t.Errorf("expected empty unbound cart after clear")
	}
	if c.OrderNumber != "ORD-2" {
		t.Errorf("expected fresh order number, got %s", c.OrderNumber)
	}
	if !c.Discount.Equal(decimal.Zero) {
		t.Errorf("expected zero discount after clear, got %s", c.Discount)
	}
}
