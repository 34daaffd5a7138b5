package orderControllers

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCart      = errors.New("cart is empty")
	ErrAmountMismatch = errors.New("amount does not match cart total")
)

// InsufficientStockError names the offending product so the client can tell
// the buyer which line blocked the checkout.
type InsufficientStockError struct {
	Product   string
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Insufficient stock for %s. Available: %d", e.Product, e.Available)
}
