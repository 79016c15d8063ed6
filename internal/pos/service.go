package pos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"tavolo-pos/internal/cart"
	"tavolo-pos/internal/database/models"
)

const (
	POS_CACHE_PREFIX       = "pos:"
	POS_CATALOG_CACHE_KEY  = POS_CACHE_PREFIX + "catalog"
	POS_SOLD_QTY_CACHE_KEY = POS_CACHE_PREFIX + "sold-quantities"
	CACHE_TTL_SHORT        = 5 * time.Minute
	CACHE_TTL_MEDIUM       = 30 * time.Minute
)

var (
	ErrEmptyCart       = errors.New("order has no items")
	ErrProductNotFound = errors.New("product not found or inactive")
	ErrOrderNotFound   = errors.New("order not found")
	ErrNoPendingSize   = errors.New("no size selection in progress")
)

// Service orchestrates terminal cart sessions against the catalog, the
// stock snapshot and the persisted order store.
type Service struct {
	db    *gorm.DB
	redis *redis.Client

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewService(db *gorm.DB, redisClient *redis.Client) *Service {
	return &Service{
		db:       db,
		redis:    redisClient,
		sessions: make(map[string]*Session),
	}
}

// Session returns the terminal's session, creating one with a fresh cart on
// first use.
func (s *Service) Session(terminalID string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[terminalID]; ok {
		return sess
	}
	sess := newSession(terminalID, NewOrderNumber())
	s.sessions[terminalID] = sess
	return sess
}

// NewOrderNumber issues a human-facing order number. The backend reassigns
// numbers on save, so uniqueness only has to hold per terminal lifetime.
func NewOrderNumber() string {
	return "ORD-" + strings.ToUpper(uuid.New().String()[:8])
}

// parseMoney parses a persisted decimal string, defaulting unparsable
// values to zero. Catalog writes validate prices, so this is a guard, not a
// code path.
func parseMoney(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func snapshotFromModel(p models.Product) cart.ProductSnapshot {
	snap := cart.ProductSnapshot{
		ID:       p.ID,
		Name:     p.ProductName,
		Price:    parseMoney(p.Price),
		Quantity: parseMoney(p.Quantity),
		Unit:     p.Unit,
	}
	if len(p.SizePrices) > 0 {
		snap.SizePrices = make(map[string]decimal.Decimal, len(p.SizePrices))
		for label, price := range p.SizePrices {
			snap.SizePrices[label] = parseMoney(price)
		}
	}
	return snap
}

func (s *Service) productSnapshot(ctx context.Context, productID int64) (cart.ProductSnapshot, error) {
	var product models.Product
	err := s.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", productID, true).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return cart.ProductSnapshot{}, ErrProductNotFound
		}
		return cart.ProductSnapshot{}, err
	}
	return snapshotFromModel(product), nil
}

// CatalogSnapshot returns the active product list, served from Redis when
// warm.
func (s *Service) CatalogSnapshot(ctx context.Context) ([]cart.ProductSnapshot, error) {
	if cached, err := s.redis.Get(ctx, POS_CATALOG_CACHE_KEY).Result(); err == nil {
		var products []models.Product
		if json.Unmarshal([]byte(cached), &products) == nil {
			snaps := make([]cart.ProductSnapshot, len(products))
			for i, p := range products {
				snaps[i] = snapshotFromModel(p)
			}
			return snaps, nil
		}
	}

	var products []models.Product
	if err := s.db.WithContext(ctx).Where("is_active = ?", true).Find(&products).Error; err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(products); err == nil {
		s.redis.Set(ctx, POS_CATALOG_CACHE_KEY, payload, CACHE_TTL_MEDIUM)
	}

	snaps := make([]cart.ProductSnapshot, len(products))
	for i, p := range products {
		snaps[i] = snapshotFromModel(p)
	}
	return snaps, nil
}

// SoldQuantities sums the quantity committed per product across all orders,
// draft and completed alike, since both hold stock from the POS grid's
// point of view. Cached briefly; invalidated after any order mutation.
func (s *Service) SoldQuantities(ctx context.Context) (cart.StockView, error) {
	if cached, err := s.redis.Get(ctx, POS_SOLD_QTY_CACHE_KEY).Result(); err == nil {
		var raw map[int64]string
		if json.Unmarshal([]byte(cached), &raw) == nil {
			view := make(cart.StockView, len(raw))
			for id, qty := range raw {
				view[id] = parseMoney(qty)
			}
			return view, nil
		}
	}

	type soldRow struct {
		ProductID int64
		Sold      int64
	}
	var rows []soldRow
	err := s.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Select("order_items.product_id AS product_id, SUM(order_items.quantity) AS sold").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.status IN ?", []string{models.OrderStatusDraft, models.OrderStatusCompleted}).
		Group("order_items.product_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	view := make(cart.StockView, len(rows))
	raw := make(map[int64]string, len(rows))
	for _, row := range rows {
		view[row.ProductID] = decimal.NewFromInt(row.Sold)
		raw[row.ProductID] = fmt.Sprintf("%d", row.Sold)
	}
	if payload, err := json.Marshal(raw); err == nil {
		s.redis.Set(ctx, POS_SOLD_QTY_CACHE_KEY, payload, CACHE_TTL_SHORT)
	}
	return view, nil
}

// stockViewFor is the admission-time stock view for a session: the global
// sold quantities minus the lines of the draft the cart is bound to. A
// resumed draft's own persisted items must not hold stock against it, or
// re-saving and then raising a quantity within the real availability would
// be rejected.
func (s *Service) stockViewFor(ctx context.Context, sess *Session) (cart.StockView, error) {
	view, err := s.SoldQuantities(ctx)
	if err != nil {
		return nil, err
	}
	draftID := sess.Cart().DraftID
	if draftID == 0 {
		return view, nil
	}

	var items []models.OrderItem
	if err := s.db.WithContext(ctx).Where("order_id = ?", draftID).Find(&items).Error; err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return view, nil
	}

	adjusted := make(cart.StockView, len(view))
	for id, qty := range view {
		adjusted[id] = qty
	}
	for _, item := range items {
		next := adjusted[item.ProductID].Sub(decimal.NewFromInt32(item.Quantity))
		if next.IsNegative() {
			next = decimal.Zero
		}
		adjusted[item.ProductID] = next
	}
	return adjusted, nil
}

func (s *Service) invalidateSnapshots(ctx context.Context) {
	_ = s.redis.Del(ctx, POS_CATALOG_CACHE_KEY, POS_SOLD_QTY_CACHE_KEY)
}

// InvalidateCatalog is called by catalog CRUD after product writes.
func (s *Service) InvalidateCatalog(ctx context.Context) {
	_ = s.redis.Del(ctx, POS_CATALOG_CACHE_KEY)
}

// AddResult is the outcome of an add-to-cart attempt: either the updated
// cart, or a pending size selection the caller must confirm first.
type AddResult struct {
	Cart        cart.Cart
	SizeOptions []cart.SizeOption
}

// AddProduct adds a product to the terminal's cart. A size-priced product
// with no size supplied parks as a pending selection instead of mutating
// the cart.
func (s *Service) AddProduct(ctx context.Context, sess *Session, productID int64, size string) (AddResult, error) {
	product, err := s.productSnapshot(ctx, productID)
	if err != nil {
		return AddResult{}, err
	}
	stock, err := s.stockViewFor(ctx, sess)
	if err != nil {
		return AddResult{}, err
	}

	if product.HasSizes() && size == "" {
		pending := cart.NewPendingProduct(product, stock)
		sess.SetPending(pending)
		return AddResult{Cart: sess.Cart(), SizeOptions: pending.Options()}, nil
	}

	updated, err := sess.Apply(func(c cart.Cart) (cart.Cart, error) {
		return cart.AddProduct(c, product, size, stock)
	})
	if err != nil {
		return AddResult{}, err
	}
	return AddResult{Cart: updated}, nil
}

// ConfirmPendingSize resolves the parked size selection and commits the
// product to the cart.
func (s *Service) ConfirmPendingSize(ctx context.Context, sess *Session, size string) (cart.Cart, error) {
	pending, ok := sess.Pending()
	if !ok {
		return sess.Cart(), ErrNoPendingSize
	}
	pending, err := pending.Select(size)
	if err != nil {
		return sess.Cart(), err
	}
	stock, err := s.stockViewFor(ctx, sess)
	if err != nil {
		return sess.Cart(), err
	}
	updated, err := sess.Apply(func(c cart.Cart) (cart.Cart, error) {
		return cart.Confirm(c, pending, stock)
	})
	if err != nil {
		return sess.Cart(), err
	}
	sess.ClearPending()
	return updated, nil
}

// CancelPending discards the parked product without touching the cart.
func (s *Service) CancelPending(sess *Session) {
	sess.ClearPending()
}

func (s *Service) SetQuantity(ctx context.Context, sess *Session, key cart.LineKey, quantity int) (cart.Cart, error) {
	stock, err := s.stockViewFor(ctx, sess)
	if err != nil {
		return sess.Cart(), err
	}
	return sess.Apply(func(c cart.Cart) (cart.Cart, error) {
		return cart.SetQuantity(c, key, quantity, stock)
	})
}

func (s *Service) RemoveLine(sess *Session, key cart.LineKey) cart.Cart {
	updated, _ := sess.Apply(func(c cart.Cart) (cart.Cart, error) {
		return cart.RemoveLine(c, key), nil
	})
	return updated
}

func (s *Service) SetItemDiscount(sess *Session, key cart.LineKey, value decimal.Decimal, discountType cart.DiscountType) (cart.Cart, error) {
	return sess.Apply(func(c cart.Cart) (cart.Cart, error) {
		return cart.SetItemDiscount(c, key, value, discountType)
	})
}

func (s *Service) SetOrderDiscount(sess *Session, value decimal.Decimal, discountType cart.DiscountType) (cart.Cart, error) {
	return sess.Apply(func(c cart.Cart) (cart.Cart, error) {
		return cart.SetOrderDiscount(c, value, discountType)
	})
}

func (s *Service) SetTable(ctx context.Context, sess *Session, tableID *int64) (cart.Cart, error) {
	if tableID != nil {
		var table models.DiningTable
		err := s.db.WithContext(ctx).Where("id = ? AND is_active = ?", *tableID, true).First(&table).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return sess.Cart(), fmt.Errorf("table %d not found", *tableID)
			}
			return sess.Cart(), err
		}
	}
	return sess.Apply(func(c cart.Cart) (cart.Cart, error) {
		return cart.SetTable(c, tableID), nil
	})
}

func (s *Service) SetDiningOption(sess *Session, option cart.DiningOption) (cart.Cart, error) {
	switch option {
	case cart.DineIn, cart.Takeaway, cart.Delivery:
	default:
		return sess.Cart(), fmt.Errorf("unknown dining option %q", option)
	}
	return sess.Apply(func(c cart.Cart) (cart.Cart, error) {
		return cart.SetDiningOption(c, option), nil
	})
}

// ClearCart starts a new order for the terminal.
func (s *Service) ClearCart(sess *Session) cart.Cart {
	updated, _ := sess.Apply(func(c cart.Cart) (cart.Cart, error) {
		return cart.Clear(c, NewOrderNumber()), nil
	})
	return updated
}
