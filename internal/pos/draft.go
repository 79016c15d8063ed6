package pos

import (
	"context"
	"errors"
	"log"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"tavolo-pos/internal/cart"
	"tavolo-pos/internal/database/models"
)

// ErrDraftUnresolvable: every persisted line failed product resolution, so
// nothing is loaded rather than opening an empty cart.
var ErrDraftUnresolvable = errors.New("draft could not be loaded: no line items resolve to current products")

// money renders a decimal for persistence: two places, half away from zero.
// Derivations stay exact; rounding happens only at this boundary.
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// serializeOrder turns the cart into the persisted order shape. The order
// discount keeps its raw value and type so "10% off" survives a reload
// instead of collapsing into a resolved amount.
func serializeOrder(c cart.Cart, status string) models.Order {
	order := models.Order{
		OrderNumber:  c.OrderNumber,
		TableID:      c.TableID,
		DiningOption: string(c.DiningOption),
		Subtotal:     money(cart.Subtotal(c)),
		Discount:     c.Discount.String(),
		DiscountType: string(c.DiscountType),
		Total:        money(cart.GrandTotal(c)),
		Status:       status,
		PaidAmount:   "0.00",
		DueAmount:    "0.00",
	}

	order.Items = make([]models.OrderItem, 0, len(c.Items))
	for _, li := range c.Items {
		item := models.OrderItem{
			ProductID:        li.Product.ID,
			Quantity:         int32(li.Quantity),
			Price:            money(cart.EffectiveUnitPrice(li)),
			Total:            money(cart.LineTotal(li)),
			ItemDiscount:     li.Discount.String(),
			ItemDiscountType: string(li.DiscountType),
		}
		if li.SelectedSize != "" {
			size := li.SelectedSize
			item.SelectedSize = &size
		}
		order.Items = append(order.Items, item)
	}
	return order
}

// Resolver maps a persisted product id to a live catalog snapshot.
type Resolver func(productID int64) (cart.ProductSnapshot, bool)

// rehydrateCart rebuilds a cart from a persisted order. The persisted unit
// price is not trusted: the live product's size-aware price wins, which the
// snapshot-based pricing gives for free. Lines whose product no longer
// resolves are dropped; the count of dropped lines is returned for logging.
func rehydrateCart(order models.Order, resolve Resolver) (cart.Cart, int, error) {
	c := cart.New(order.OrderNumber)
	c.TableID = order.TableID
	c.DiningOption = cart.DiningOption(order.DiningOption)
	c.Discount = parseMoney(order.Discount)
	c.DiscountType = cart.DiscountType(order.DiscountType)
	c.DraftID = order.ID

	dropped := 0
	items := make([]cart.LineItem, 0, len(order.Items))
	for _, item := range order.Items {
		product, ok := resolve(item.ProductID)
		if !ok {
			dropped++
			continue
		}
		li := cart.LineItem{
			Product:      product,
			Quantity:     int(item.Quantity),
			Discount:     parseMoney(item.ItemDiscount),
			DiscountType: cart.DiscountType(item.ItemDiscountType),
		}
		if item.SelectedSize != nil {
			li.SelectedSize = *item.SelectedSize
		}
		items = append(items, li)
	}

	// Zero resolved lines means nothing to resume, whether every line was
	// dropped or the order never had any.
	if len(items) == 0 {
		return cart.Cart{}, dropped, ErrDraftUnresolvable
	}
	c.Items = items
	return c, dropped, nil
}

// SaveDraft persists the cart as a draft order. Updating a draft the cart
// is already bound to keeps the cart open; creating a fresh draft closes
// it. The asymmetry mirrors the POS flow: you're still working on the draft
// you resumed, but saving a new one parks it and starts the next order.
func (s *Service) SaveDraft(ctx context.Context, sess *Session) (*models.Order, error) {
	c := sess.Cart()
	if c.IsEmpty() {
		return nil, ErrEmptyCart
	}

	order := serializeOrder(c, models.OrderStatusDraft)

	if c.DraftID != 0 {
		if err := s.updateOrder(ctx, c.DraftID, &order); err != nil {
			return nil, err
		}
		s.invalidateSnapshots(ctx)
		return &order, nil
	}

	if err := s.db.WithContext(ctx).Create(&order).Error; err != nil {
		return nil, err
	}
	s.invalidateSnapshots(ctx)
	sess.Replace(cart.New(NewOrderNumber()))
	return &order, nil
}

// updateOrder rewrites an existing order row and its line items in one
// transaction, preserving the stored order number.
func (s *Service) updateOrder(ctx context.Context, orderID int64, order *models.Order) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Order
		if err := tx.Where("id = ?", orderID).First(&existing).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}

		order.ID = existing.ID
		order.OrderNumber = existing.OrderNumber
		order.CreatedAt = existing.CreatedAt

		if err := tx.Where("order_id = ?", existing.ID).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		for i := range order.Items {
			order.Items[i].OrderID = existing.ID
		}
		return tx.Save(order).Error
	})
}

// LoadDraft rehydrates a terminal's cart from a persisted order, replacing
// all prior cart state.
func (s *Service) LoadDraft(ctx context.Context, sess *Session, orderID int64) (cart.Cart, error) {
	var order models.Order
	err := s.db.WithContext(ctx).Preload("Items").Where("id = ?", orderID).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return sess.Cart(), ErrOrderNotFound
		}
		return sess.Cart(), err
	}

	// Resolve against the live catalog first, falling back to the cached
	// catalog snapshot when the direct fetch misses.
	var cachedByID map[int64]cart.ProductSnapshot
	resolve := func(productID int64) (cart.ProductSnapshot, bool) {
		if snap, err := s.productSnapshot(ctx, productID); err == nil {
			return snap, true
		}
		if cachedByID == nil {
			cachedByID = make(map[int64]cart.ProductSnapshot)
			if snaps, err := s.CatalogSnapshot(ctx); err == nil {
				for _, snap := range snaps {
					cachedByID[snap.ID] = snap
				}
			}
		}
		snap, ok := cachedByID[productID]
		return snap, ok
	}

	c, dropped, err := rehydrateCart(order, resolve)
	if err != nil {
		return sess.Cart(), err
	}
	if dropped > 0 {
		log.Printf("draft %d: dropped %d line item(s) with unresolvable products", order.ID, dropped)
	}

	sess.Replace(c)
	return c, nil
}

// ListOrders pages through persisted orders, optionally filtered by status.
func (s *Service) ListOrders(ctx context.Context, status string, page, pageSize int) ([]models.Order, int64, error) {
	if pageSize <= 0 {
		pageSize = 20
	}
	if page <= 0 {
		page = 1
	}

	query := s.db.WithContext(ctx).Model(&models.Order{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	err := query.Preload("Items").Preload("Table").
		Order("created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (s *Service) GetOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Preload("Items.Product").Preload("Table").
		Where("id = ?", orderID).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (s *Service) DeleteOrder(ctx context.Context, orderID int64) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Items first: order_items carries a foreign key to orders.
		if err := tx.Where("order_id = ?", orderID).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", orderID).Delete(&models.Order{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrOrderNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.invalidateSnapshots(ctx)
	return nil
}
