package pos

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tavolo-pos/internal/cart"
	"tavolo-pos/internal/database/models"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func testSnapshots(t *testing.T) map[int64]cart.ProductSnapshot {
	t.Helper()
	return map[int64]cart.ProductSnapshot{
		1: {
			ID:       1,
			Name:     "Nasi Goreng",
			Price:    dec(t, "5.00"),
			Quantity: dec(t, "50"),
			Unit:     "pcs",
		},
		2: {
			ID:   2,
			Name: "Iced Tea",
			SizePrices: map[string]decimal.Decimal{
				"S": dec(t, "2.00"),
				"M": dec(t, "3.00"),
			},
			Quantity: dec(t, "50"),
			Unit:     "pcs",
		},
	}
}

func testCart(t *testing.T) cart.Cart {
	t.Helper()
	snaps := testSnapshots(t)
	stock := cart.StockView{}

	c := cart.New("ORD-TEST1")
	var err error
	c, err = cart.AddProduct(c, snaps[1], "", stock)
	require.NoError(t, err)
	c, err = cart.AddProduct(c, snaps[1], "", stock)
	require.NoError(t, err)
	c, err = cart.AddProduct(c, snaps[2], "M", stock)
	require.NoError(t, err)
	c, err = cart.SetItemDiscount(c, cart.LineKey{ProductID: 2, Size: "M"}, dec(t, "10"), cart.DiscountPercentage)
	require.NoError(t, err)
	c, err = cart.SetOrderDiscount(c, dec(t, "5"), cart.DiscountPercentage)
	require.NoError(t, err)
	return c
}

func TestSerializeOrder(t *testing.T) {
	c := testCart(t)
	tableID := int64(7)
	c.TableID = &tableID
	c.DiningOption = cart.Takeaway

	order := serializeOrder(c, models.OrderStatusDraft)

	assert.Equal(t, "ORD-TEST1", order.OrderNumber)
	assert.Equal(t, models.OrderStatusDraft, order.Status)
	assert.Equal(t, "takeaway", order.DiningOption)
	require.NotNil(t, order.TableID)
	assert.Equal(t, int64(7), *order.TableID)

	// Subtotal nets item discounts; the order discount stays raw.
	assert.Equal(t, "12.70", order.Subtotal)
	assert.Equal(t, "5", order.Discount)
	assert.Equal(t, "percentage", order.DiscountType)
	assert.Equal(t, "12.07", order.Total)

	require.Len(t, order.Items, 2)
	assert.Equal(t, int64(1), order.Items[0].ProductID)
	assert.Equal(t, int32(2), order.Items[0].Quantity)
	assert.Equal(t, "5.00", order.Items[0].Price)
	assert.Equal(t, "10.00", order.Items[0].Total)
	assert.Nil(t, order.Items[0].SelectedSize)

	assert.Equal(t, int64(2), order.Items[1].ProductID)
	assert.Equal(t, "3.00", order.Items[1].Price)
	assert.Equal(t, "2.70", order.Items[1].Total)
	assert.Equal(t, "10", order.Items[1].ItemDiscount)
	assert.Equal(t, "percentage", order.Items[1].ItemDiscountType)
	require.NotNil(t, order.Items[1].SelectedSize)
	assert.Equal(t, "M", *order.Items[1].SelectedSize)
}

func TestDraftRoundTrip(t *testing.T) {
	snaps := testSnapshots(t)
	resolve := func(id int64) (cart.ProductSnapshot, bool) {
		snap, ok := snaps[id]
		return snap, ok
	}

	original := testCart(t)
	order := serializeOrder(original, models.OrderStatusDraft)
	order.ID = 42

	restored, dropped, err := rehydrateCart(order, resolve)
	require.NoError(t, err)
	assert.Zero(t, dropped)
	assert.Equal(t, int64(42), restored.DraftID)
	assert.Equal(t, original.OrderNumber, restored.OrderNumber)
	assert.True(t, restored.Discount.Equal(original.Discount))
	assert.Equal(t, original.DiscountType, restored.DiscountType)
	assert.Equal(t, original.DiningOption, restored.DiningOption)

	require.Len(t, restored.Items, len(original.Items))
	for i, want := range original.Items {
		got := restored.Items[i]
		assert.Equal(t, want.Key(), got.Key())
		assert.Equal(t, want.Quantity, got.Quantity)
		assert.True(t, got.Discount.Equal(want.Discount))
		assert.Equal(t, want.DiscountType, got.DiscountType)
	}

	// Totals recompute identically from live snapshots.
	assert.True(t, cart.GrandTotal(restored).Equal(cart.GrandTotal(original)))
}

func TestRehydrate_LivePriceWins(t *testing.T) {
	order := serializeOrder(testCart(t), models.OrderStatusDraft)

	// Price changed since the draft was saved.
	snaps := testSnapshots(t)
	repriced := snaps[2]
	repriced.SizePrices = map[string]decimal.Decimal{
		"S": dec(t, "2.00"),
		"M": dec(t, "4.00"),
	}
	snaps[2] = repriced

	restored, _, err := rehydrateCart(order, func(id int64) (cart.ProductSnapshot, bool) {
		snap, ok := snaps[id]
		return snap, ok
	})
	require.NoError(t, err)

	li, ok := restored.Find(cart.LineKey{ProductID: 2, Size: "M"})
	require.True(t, ok)
	assert.True(t, cart.EffectiveUnitPrice(li).Equal(dec(t, "4.00")),
		"persisted price must not be trusted over the live size price")
}

func TestRehydrate_DropsUnresolvableLines(t *testing.T) {
	snaps := testSnapshots(t)
	order := serializeOrder(testCart(t), models.OrderStatusDraft)

	// Product 2 vanished from the catalog.
	restored, dropped, err := rehydrateCart(order, func(id int64) (cart.ProductSnapshot, bool) {
		if id == 2 {
			return cart.ProductSnapshot{}, false
		}
		snap, ok := snaps[id]
		return snap, ok
	})
	require.NoError(t, err)
	assert.Equal(t, 1, dropped)
	require.Len(t, restored.Items, 1)
	assert.Equal(t, int64(1), restored.Items[0].Product.ID)
}

func TestRehydrate_ZeroItemOrderFails(t *testing.T) {
	order := models.Order{OrderNumber: "ORD-EMPTY", Status: models.OrderStatusDraft}

	_, dropped, err := rehydrateCart(order, func(int64) (cart.ProductSnapshot, bool) {
		return cart.ProductSnapshot{}, true
	})
	assert.ErrorIs(t, err, ErrDraftUnresolvable)
	assert.Zero(t, dropped)
}

func TestRehydrate_AllLinesUnresolvableFails(t *testing.T) {
	order := serializeOrder(testCart(t), models.OrderStatusDraft)

	_, dropped, err := rehydrateCart(order, func(int64) (cart.ProductSnapshot, bool) {
		return cart.ProductSnapshot{}, false
	})
	assert.ErrorIs(t, err, ErrDraftUnresolvable)
	assert.Equal(t, 2, dropped)
}
