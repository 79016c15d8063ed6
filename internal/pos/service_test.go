package pos

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"tavolo-pos/internal/cart"
	"tavolo-pos/internal/database"
	"tavolo-pos/internal/database/models"
)

// newTestService runs the service against an in-memory sqlite database with
// foreign keys enforced, and a redis client pointed at nothing so every
// cache lookup falls through to the database.
func newTestService(t *testing.T) *Service {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.Exec("PRAGMA foreign_keys = ON").Error)
	require.NoError(t, database.Migrate(db))

	rdb := redis.NewClient(&redis.Options{
		Addr:        "localhost:0",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { rdb.Close() })

	return NewService(db, rdb)
}

func createTestProduct(t *testing.T, db *gorm.DB, name, price, quantity string) models.Product {
	t.Helper()
	product := models.Product{
		ProductName: name,
		Price:       price,
		Quantity:    quantity,
		Unit:        "pcs",
		IsActive:    true,
	}
	require.NoError(t, db.Create(&product).Error)
	return product
}

func TestDeleteOrder_DeletesItemsWithOrder(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	product := createTestProduct(t, svc.db, "Espresso", "3.00", "10")

	order := models.Order{
		OrderNumber: "ORD-DEL1",
		Subtotal:    "6.00",
		Total:       "6.00",
		Status:      models.OrderStatusDraft,
		Items: []models.OrderItem{
			{ProductID: product.ID, Quantity: 2, Price: "3.00", Total: "6.00"},
		},
	}
	require.NoError(t, svc.db.Create(&order).Error)

	require.NoError(t, svc.DeleteOrder(ctx, order.ID))

	var orders, items int64
	svc.db.Model(&models.Order{}).Count(&orders)
	svc.db.Model(&models.OrderItem{}).Count(&items)
	assert.Zero(t, orders)
	assert.Zero(t, items)
}

func TestDeleteOrder_NotFound(t *testing.T) {
	svc := newTestService(t)
	assert.ErrorIs(t, svc.DeleteOrder(context.Background(), 999), ErrOrderNotFound)
}

// A resumed draft's own persisted lines must not count against its cart:
// with 5 on hand and its draft holding 3, the cart can still go to 5.
func TestAdmissionExcludesBoundDraft(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	product := createTestProduct(t, svc.db, "Espresso", "3.00", "5")

	draft := models.Order{
		OrderNumber: "ORD-HELD",
		Subtotal:    "9.00",
		Total:       "9.00",
		Status:      models.OrderStatusDraft,
		Items: []models.OrderItem{
			{ProductID: product.ID, Quantity: 3, Price: "3.00", Total: "9.00"},
		},
	}
	require.NoError(t, svc.db.Create(&draft).Error)

	sess := svc.Session("terminal-1")
	_, err := svc.LoadDraft(ctx, sess, draft.ID)
	require.NoError(t, err)

	key := cart.LineKey{ProductID: product.ID}
	updated, err := svc.SetQuantity(ctx, sess, key, 5)
	require.NoError(t, err)
	li, ok := updated.Find(key)
	require.True(t, ok)
	assert.Equal(t, 5, li.Quantity)

	// On-hand is still the ceiling.
	_, err = svc.SetQuantity(ctx, sess, key, 6)
	var insufficient *cart.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.True(t, insufficient.Available.Equal(dec(t, "5")))

	// Another terminal sees the draft's units as committed.
	other := svc.Session("terminal-2")
	for i := 0; i < 2; i++ {
		_, err = svc.AddProduct(ctx, other, product.ID, "")
		require.NoError(t, err)
	}
	_, err = svc.AddProduct(ctx, other, product.ID, "")
	require.ErrorAs(t, err, &insufficient)
	assert.True(t, insufficient.Available.Equal(dec(t, "2")))
}
