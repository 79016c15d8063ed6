package pos

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"tavolo-pos/internal/cart"
	"tavolo-pos/internal/database/models"
)

// DueMethod marks a split whose amount the customer still owes.
const DueMethod = "due"

var (
	ErrNoPayments      = errors.New("at least one payment is required")
	ErrNegativePayment = errors.New("payment amount cannot be negative")
)

// PaymentSplit is one tendered payment. A checkout carries either a single
// split or several (e.g. half cash, half card); a "due" split leaves a
// residual owed amount.
type PaymentSplit struct {
	Method string
	Amount decimal.Decimal
}

// PaymentSummary is the resolved payment breakdown persisted on the order.
type PaymentSummary struct {
	Method string
	Status string
	Paid   decimal.Decimal
	Due    decimal.Decimal
	Change decimal.Decimal
}

// summarizePayments folds the tendered splits against the grand total.
// Non-"due" splits count as paid; overpayment becomes change rather than
// inflating the stored paid amount past the total.
func summarizePayments(total decimal.Decimal, splits []PaymentSplit) (PaymentSummary, error) {
	if len(splits) == 0 {
		return PaymentSummary{}, ErrNoPayments
	}

	methods := make([]string, 0, len(splits))
	tendered := decimal.Zero
	for _, split := range splits {
		if split.Amount.IsNegative() {
			return PaymentSummary{}, ErrNegativePayment
		}
		methods = append(methods, split.Method)
		if split.Method != DueMethod {
			tendered = tendered.Add(split.Amount)
		}
	}

	summary := PaymentSummary{
		Method: strings.Join(methods, ","),
		Change: cart.ChangeDue(tendered, total),
	}

	if tendered.GreaterThanOrEqual(total) {
		summary.Paid = total
		summary.Due = decimal.Zero
		summary.Status = models.PaymentStatusPaid
	} else {
		summary.Paid = tendered
		summary.Due = total.Sub(tendered)
		if tendered.GreaterThan(decimal.Zero) {
			summary.Status = models.PaymentStatusPartial
		} else {
			summary.Status = models.PaymentStatusDue
		}
	}
	return summary, nil
}

// CheckoutRequest carries the tendered payments plus optional customer
// details for the receipt.
type CheckoutRequest struct {
	Payments      []PaymentSplit
	CustomerName  string
	CustomerPhone string
}

// Checkout finalizes the terminal's cart as a completed order. A cart bound
// to a draft finalizes that draft in place; either way the cart is cleared
// and a fresh order number issued. On any failure the cart is untouched so
// the cashier can retry.
func (s *Service) Checkout(ctx context.Context, sess *Session, req CheckoutRequest) (*models.Order, PaymentSummary, error) {
	c := sess.Cart()
	if c.IsEmpty() {
		return nil, PaymentSummary{}, ErrEmptyCart
	}

	summary, err := summarizePayments(cart.GrandTotal(c), req.Payments)
	if err != nil {
		return nil, PaymentSummary{}, err
	}

	order := serializeOrder(c, models.OrderStatusCompleted)
	order.PaymentMethod = summary.Method
	order.PaymentStatus = summary.Status
	order.PaidAmount = money(summary.Paid)
	order.DueAmount = money(summary.Due)
	if req.CustomerName != "" {
		name := req.CustomerName
		order.CustomerName = &name
	}
	if req.CustomerPhone != "" {
		phone := req.CustomerPhone
		order.CustomerPhone = &phone
	}

	if c.DraftID != 0 {
		if err := s.updateOrder(ctx, c.DraftID, &order); err != nil {
			return nil, PaymentSummary{}, err
		}
	} else {
		if err := s.db.WithContext(ctx).Create(&order).Error; err != nil {
			return nil, PaymentSummary{}, err
		}
	}

	s.invalidateSnapshots(ctx)
	sess.Replace(cart.New(NewOrderNumber()))
	return &order, summary, nil
}
