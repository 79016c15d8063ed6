package cart

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// OutOfStockError blocks adding a product whose availability is zero.
type OutOfStockError struct {
	ProductName string
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("%s is out of stock", e.ProductName)
}

// InsufficientStockError blocks an increment or quantity edit that would
// exceed availability. Available is carried for display.
type InsufficientStockError struct {
	ProductName string
	Unit        string
	Available   decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("only %s %s of %s available", e.Available.String(), e.Unit, e.ProductName)
}

// SizeRequiredError means a size-priced product was confirmed without a
// size selection.
type SizeRequiredError struct {
	ProductName string
}

func (e *SizeRequiredError) Error() string {
	return fmt.Sprintf("a size must be selected for %s", e.ProductName)
}

// LineNotFoundError means a quantity/discount edit referenced a line that
// is not in the cart.
type LineNotFoundError struct {
	Key LineKey
}

func (e *LineNotFoundError) Error() string {
	if e.Key.Size != "" {
		return fmt.Sprintf("product %d (%s) is not in the order", e.Key.ProductID, e.Key.Size)
	}
	return fmt.Sprintf("product %d is not in the order", e.Key.ProductID)
}

// InvalidDiscountError rejects negative discount values.
type InvalidDiscountError struct {
	Value decimal.Decimal
}

func (e *InvalidDiscountError) Error() string {
	return fmt.Sprintf("discount cannot be negative: %s", e.Value.String())
}
