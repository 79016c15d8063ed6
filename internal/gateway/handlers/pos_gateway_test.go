package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"tavolo-pos/internal/database"
	"tavolo-pos/internal/database/models"
	"tavolo-pos/internal/pos"
)

// newTestBackend wires handlers against an in-memory sqlite database and a
// redis client pointed at nothing, so cache lookups fall through to the
// database and invalidations are no-ops.
func newTestBackend(t *testing.T) (*gorm.DB, *pos.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

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

	return db, pos.NewService(db, rdb)
}

func jsonRequest(t *testing.T, method, target, body string) (*httptest.ResponseRecorder, *gin.Context) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, bytes.NewBufferString(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Request.Header.Set("X-Terminal-ID", "test-terminal")
	return w, c
}

// Quantity zero must pass request binding and reach the cart core, where
// targets below one are a silent no-op.
func TestSetQuantity_ZeroIsAcceptedAsNoOp(t *testing.T) {
	db, svc := newTestBackend(t)
	h := NewPOSHTTPHandler(svc)

	product := models.Product{ProductName: "Espresso", Price: "3.00", Quantity: "10", Unit: "pcs", IsActive: true}
	require.NoError(t, db.Create(&product).Error)

	w, c := jsonRequest(t, http.MethodPost, "/pos/cart/items", `{"product_id":1}`)
	h.AddItem(c)
	require.Equal(t, http.StatusOK, w.Code)

	w, c = jsonRequest(t, http.MethodPut, "/pos/cart/items/quantity", `{"product_id":1,"quantity":0}`)
	h.SetQuantity(c)
	assert.Equal(t, http.StatusOK, w.Code)

	// The line is untouched.
	sess := svc.Session("test-terminal")
	require.Len(t, sess.Cart().Items, 1)
	assert.Equal(t, 1, sess.Cart().Items[0].Quantity)
}
