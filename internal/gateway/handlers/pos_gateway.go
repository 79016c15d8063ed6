package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"tavolo-pos/internal/cart"
	"tavolo-pos/internal/pos"
)

// POSHTTPHandler exposes the cashier surface: cart editing, the size
// selection gate, drafts, order history and checkout. Each terminal gets
// its own cart, keyed by the X-Terminal-ID header.
type POSHTTPHandler struct {
	svc *pos.Service
}

func NewPOSHTTPHandler(svc *pos.Service) *POSHTTPHandler {
	return &POSHTTPHandler{svc: svc}
}

const terminalHeader = "X-Terminal-ID"

// session resolves the calling terminal's cart session. Terminals without
// the header fall back to the authenticated username so a bare client still
// gets a stable cart.
func (h *POSHTTPHandler) session(c *gin.Context) *pos.Session {
	terminalID := c.GetHeader(terminalHeader)
	if terminalID == "" {
		if username, ok := c.Get("username"); ok {
			terminalID, _ = username.(string)
		}
	}
	if terminalID == "" {
		terminalID = "default"
	}
	return h.svc.Session(terminalID)
}

// --- View models ---

type SizeOptionView struct {
	Label    string `json:"label"`
	Price    string `json:"price"`
	Disabled bool   `json:"disabled"`
}

type CartItemView struct {
	ProductID    int64  `json:"product_id"`
	ProductName  string `json:"product_name"`
	SelectedSize string `json:"selected_size,omitempty"`
	Quantity     int    `json:"quantity"`
	UnitPrice    string `json:"unit_price"`
	Discount     string `json:"discount"`
	DiscountType string `json:"discount_type"`
	LineTotal    string `json:"line_total"`
}

type CartView struct {
	OrderNumber   string         `json:"order_number"`
	DraftID       int64          `json:"draft_id,omitempty"`
	TableID       *int64         `json:"table_id,omitempty"`
	DiningOption  string         `json:"dining_option"`
	Items         []CartItemView `json:"items"`
	Subtotal      string         `json:"subtotal"`
	ItemDiscounts string         `json:"item_discounts"`
	OrderDiscount string         `json:"order_discount"`
	GrandTotal    string         `json:"grand_total"`
}

func moneyString(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func cartView(c cart.Cart) CartView {
	items := make([]CartItemView, 0, len(c.Items))
	for _, li := range c.Items {
		items = append(items, CartItemView{
			ProductID:    li.Product.ID,
			ProductName:  li.Product.Name,
			SelectedSize: li.SelectedSize,
			Quantity:     li.Quantity,
			UnitPrice:    moneyString(cart.EffectiveUnitPrice(li)),
			Discount:     li.Discount.String(),
			DiscountType: string(li.DiscountType),
			LineTotal:    moneyString(cart.LineTotal(li)),
		})
	}
	return CartView{
		OrderNumber:   c.OrderNumber,
		DraftID:       c.DraftID,
		TableID:       c.TableID,
		DiningOption:  string(c.DiningOption),
		Items:         items,
		Subtotal:      moneyString(cart.Subtotal(c)),
		ItemDiscounts: moneyString(cart.TotalItemDiscounts(c)),
		OrderDiscount: moneyString(cart.OrderDiscountAmount(c)),
		GrandTotal:    moneyString(cart.GrandTotal(c)),
	}
}

func sizeOptionViews(options []cart.SizeOption) []SizeOptionView {
	views := make([]SizeOptionView, 0, len(options))
	for _, opt := range options {
		views = append(views, SizeOptionView{
			Label:    opt.Label,
			Price:    moneyString(opt.Price),
			Disabled: opt.Disabled,
		})
	}
	return views
}

// cartError maps cart domain errors onto HTTP status codes. Stock and size
// rejections are client-visible conditions, not server faults.
func cartError(c *gin.Context, err error) {
	var (
		outOfStock   *cart.OutOfStockError
		insufficient *cart.InsufficientStockError
		sizeRequired *cart.SizeRequiredError
		notFound     *cart.LineNotFoundError
		badDiscount  *cart.InvalidDiscountError
	)
	switch {
	case errors.As(err, &outOfStock), errors.As(err, &insufficient):
		c.JSON(http.StatusConflict, errorResponse(err.Error()))
	case errors.As(err, &sizeRequired), errors.As(err, &badDiscount):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	case errors.Is(err, pos.ErrProductNotFound), errors.Is(err, pos.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	case errors.Is(err, pos.ErrEmptyCart), errors.Is(err, pos.ErrNoPendingSize),
		errors.Is(err, pos.ErrNoPayments), errors.Is(err, pos.ErrNegativePayment),
		errors.Is(err, pos.ErrDraftUnresolvable):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, errorResponse(err.Error()))
	}
}

// --- Requests ---

type AddItemRequest struct {
	ProductID int64  `json:"product_id" binding:"required"`
	Size      string `json:"size,omitempty"`
}

type ConfirmSizeRequest struct {
	Size string `json:"size" binding:"required"`
}

type LineKeyRequest struct {
	ProductID int64  `json:"product_id" binding:"required"`
	Size      string `json:"size,omitempty"`
}

// Quantity carries no required binding: zero and negative targets must
// reach the cart core, which treats anything below one as a silent no-op.
type SetQuantityRequest struct {
	ProductID int64  `json:"product_id" binding:"required"`
	Size      string `json:"size,omitempty"`
	Quantity  int    `json:"quantity"`
}

type DiscountRequest struct {
	ProductID    int64  `json:"product_id,omitempty"`
	Size         string `json:"size,omitempty"`
	Value        string `json:"value" binding:"required"`
	DiscountType string `json:"discount_type" binding:"required,oneof=amount percentage"`
}

type SetTableRequest struct {
	TableID *int64 `json:"table_id"`
}

type SetDiningOptionRequest struct {
	DiningOption string `json:"dining_option" binding:"required"`
}

type CheckoutPaymentRequest struct {
	Method string `json:"method" binding:"required"`
	Amount string `json:"amount" binding:"required"`
}

type CheckoutHTTPRequest struct {
	Payments      []CheckoutPaymentRequest `json:"payments" binding:"required"`
	CustomerName  string                   `json:"customer_name,omitempty"`
	CustomerPhone string                   `json:"customer_phone,omitempty"`
}

// --- Catalog & stock ---

func (h *POSHTTPHandler) GetCatalog(c *gin.Context) {
	snapshots, err := h.svc.CatalogSnapshot(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to load catalog"))
		return
	}

	type productView struct {
		ID         int64             `json:"id"`
		Name       string            `json:"name"`
		Price      string            `json:"price"`
		SizePrices map[string]string `json:"size_prices,omitempty"`
		Quantity   string            `json:"quantity"`
		Unit       string            `json:"unit"`
	}
	views := make([]productView, 0, len(snapshots))
	for _, p := range snapshots {
		view := productView{
			ID:       p.ID,
			Name:     p.Name,
			Price:    moneyString(p.Price),
			Quantity: p.Quantity.String(),
			Unit:     p.Unit,
		}
		if p.HasSizes() {
			view.SizePrices = make(map[string]string, len(p.SizePrices))
			for label, price := range p.SizePrices {
				view.SizePrices[label] = moneyString(price)
			}
		}
		views = append(views, view)
	}

	c.JSON(http.StatusOK, successResponse("Catalog retrieved successfully", views))
}

// GetStock reports remaining availability per product: on-hand quantity
// minus everything already claimed by draft and completed orders.
func (h *POSHTTPHandler) GetStock(c *gin.Context) {
	snapshots, err := h.svc.CatalogSnapshot(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to load catalog"))
		return
	}
	stock, err := h.svc.SoldQuantities(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to load stock"))
		return
	}

	type stockView struct {
		ProductID int64  `json:"product_id"`
		Available string `json:"available"`
		Unit      string `json:"unit"`
	}
	views := make([]stockView, 0, len(snapshots))
	for _, p := range snapshots {
		views = append(views, stockView{
			ProductID: p.ID,
			Available: stock.Available(p).String(),
			Unit:      p.Unit,
		})
	}

	c.JSON(http.StatusOK, successResponse("Stock retrieved successfully", views))
}

// --- Cart ---

func (h *POSHTTPHandler) GetCart(c *gin.Context) {
	sess := h.session(c)
	c.JSON(http.StatusOK, successResponse("Cart retrieved successfully", cartView(sess.Cart())))
}

func (h *POSHTTPHandler) AddItem(c *gin.Context) {
	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	sess := h.session(c)
	result, err := h.svc.AddProduct(c.Request.Context(), sess, req.ProductID, req.Size)
	if err != nil {
		cartError(c, err)
		return
	}

	if len(result.SizeOptions) > 0 {
		c.JSON(http.StatusOK, successResponse("Size selection required", gin.H{
			"cart":         cartView(result.Cart),
			"size_options": sizeOptionViews(result.SizeOptions),
		}))
		return
	}
	c.JSON(http.StatusOK, successResponse("Item added to cart", cartView(result.Cart)))
}

func (h *POSHTTPHandler) ConfirmSize(c *gin.Context) {
	var req ConfirmSizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	sess := h.session(c)
	updated, err := h.svc.ConfirmPendingSize(c.Request.Context(), sess, req.Size)
	if err != nil {
		cartError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Item added to cart", cartView(updated)))
}

func (h *POSHTTPHandler) CancelSize(c *gin.Context) {
	sess := h.session(c)
	h.svc.CancelPending(sess)
	c.JSON(http.StatusOK, successResponse("Size selection cancelled", cartView(sess.Cart())))
}

func (h *POSHTTPHandler) SetQuantity(c *gin.Context) {
	var req SetQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	sess := h.session(c)
	key := cart.LineKey{ProductID: req.ProductID, Size: req.Size}
	updated, err := h.svc.SetQuantity(c.Request.Context(), sess, key, req.Quantity)
	if err != nil {
		cartError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Quantity updated", cartView(updated)))
}

func (h *POSHTTPHandler) RemoveItem(c *gin.Context) {
	var req LineKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	sess := h.session(c)
	updated := h.svc.RemoveLine(sess, cart.LineKey{ProductID: req.ProductID, Size: req.Size})
	c.JSON(http.StatusOK, successResponse("Item removed from cart", cartView(updated)))
}

func (h *POSHTTPHandler) SetItemDiscount(c *gin.Context) {
	var req DiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}
	if req.ProductID == 0 {
		c.JSON(http.StatusBadRequest, errorResponse("product_id is required"))
		return
	}
	value, err := decimal.NewFromString(req.Value)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid discount value"))
		return
	}

	sess := h.session(c)
	key := cart.LineKey{ProductID: req.ProductID, Size: req.Size}
	updated, err := h.svc.SetItemDiscount(sess, key, value, cart.DiscountType(req.DiscountType))
	if err != nil {
		cartError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Item discount applied", cartView(updated)))
}

func (h *POSHTTPHandler) SetOrderDiscount(c *gin.Context) {
	var req DiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}
	value, err := decimal.NewFromString(req.Value)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid discount value"))
		return
	}

	sess := h.session(c)
	updated, err := h.svc.SetOrderDiscount(sess, value, cart.DiscountType(req.DiscountType))
	if err != nil {
		cartError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Order discount applied", cartView(updated)))
}

func (h *POSHTTPHandler) SetTable(c *gin.Context) {
	var req SetTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	sess := h.session(c)
	updated, err := h.svc.SetTable(c.Request.Context(), sess, req.TableID)
	if err != nil {
		cartError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Table assigned", cartView(updated)))
}

func (h *POSHTTPHandler) SetDiningOption(c *gin.Context) {
	var req SetDiningOptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	sess := h.session(c)
	updated, err := h.svc.SetDiningOption(sess, cart.DiningOption(req.DiningOption))
	if err != nil {
		cartError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Dining option updated", cartView(updated)))
}

func (h *POSHTTPHandler) ClearCart(c *gin.Context) {
	sess := h.session(c)
	updated := h.svc.ClearCart(sess)
	c.JSON(http.StatusOK, successResponse("Cart cleared", cartView(updated)))
}

// --- Drafts & orders ---

func (h *POSHTTPHandler) SaveDraft(c *gin.Context) {
	sess := h.session(c)
	order, err := h.svc.SaveDraft(c.Request.Context(), sess)
	if err != nil {
		cartError(c, err)
		return
	}
	c.JSON(http.StatusCreated, successResponse("Draft saved successfully", gin.H{
		"order": order,
		"cart":  cartView(sess.Cart()),
	}))
}

func (h *POSHTTPHandler) LoadDraft(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid order ID"))
		return
	}

	sess := h.session(c)
	loaded, err := h.svc.LoadDraft(c.Request.Context(), sess, orderID)
	if err != nil {
		cartError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Draft loaded successfully", cartView(loaded)))
}

func (h *POSHTTPHandler) ListOrders(c *gin.Context) {
	status := c.Query("status")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	orders, total, err := h.svc.ListOrders(c.Request.Context(), status, page, pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to list orders"))
		return
	}
	c.JSON(http.StatusOK, successWithMetaResponse("Orders retrieved successfully", orders, Pagination{
		Page:       page,
		PageSize:   pageSize,
		TotalCount: total,
	}))
}

func (h *POSHTTPHandler) GetOrder(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid order ID"))
		return
	}

	order, err := h.svc.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		cartError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Order retrieved successfully", order))
}

func (h *POSHTTPHandler) DeleteOrder(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid order ID"))
		return
	}

	if err := h.svc.DeleteOrder(c.Request.Context(), orderID); err != nil {
		cartError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Order deleted successfully", nil))
}

func (h *POSHTTPHandler) Checkout(c *gin.Context) {
	var req CheckoutHTTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	splits := make([]pos.PaymentSplit, 0, len(req.Payments))
	for _, p := range req.Payments {
		amount, err := decimal.NewFromString(p.Amount)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("Invalid payment amount"))
			return
		}
		splits = append(splits, pos.PaymentSplit{Method: p.Method, Amount: amount})
	}

	sess := h.session(c)
	order, summary, err := h.svc.Checkout(c.Request.Context(), sess, pos.CheckoutRequest{
		Payments:      splits,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
	})
	if err != nil {
		cartError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse("Checkout completed successfully", gin.H{
		"order": order,
		"payment": gin.H{
			"method": summary.Method,
			"status": summary.Status,
			"paid":   moneyString(summary.Paid),
			"due":    moneyString(summary.Due),
			"change": moneyString(summary.Change),
		},
		"cart": cartView(sess.Cart()),
	}))
}
