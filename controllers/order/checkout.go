package orderControllers

import (
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ferditing/smart-livestock-backend/models"
)

// CheckoutOptions tunes a single checkout invocation.
type CheckoutOptions struct {
	// ProviderID scopes the checkout to one agrovet's cart lines; nil consumes
	// the whole cart.
	ProviderID *uint

	// PaymentRef is attached to the created order when the checkout is
	// gateway-initialized; nil for direct checkout.
	PaymentRef *string

	// ExpectedAmount, when set, must match the computed total within one
	// currency unit or the checkout aborts with ErrAmountMismatch.
	ExpectedAmount *decimal.Decimal

	// IdempotencyKey dedupes retried calls per buyer: a replay returns the
	// originally created order instead of creating a second one.
	IdempotencyKey string
}

// checkoutLine is a cart row joined with the product fields read inside the
// checkout transaction. Price and stock come from this read, not from
// cart-time values.
type checkoutLine struct {
	CartItemID uint
	ProductID  uint
	Qty        int
	Name       string
	Price      decimal.Decimal
	Stock      int
	ProviderID uint
}

var amountTolerance = decimal.NewFromInt(1)

// Checkout converts the buyer's cart lines (optionally scoped to one
// provider) into a durable order: it re-validates stock, computes the total
// from current prices, creates the order with its items and per-seller
// fulfillment rows, decrements product stock, and deletes the consumed cart
// lines. All writes happen in one transaction; any failure leaves no partial
// state. The returned bool is false when an idempotency-key replay returned
// an existing order.
func Checkout(db *gorm.DB, userID uint, opts CheckoutOptions) (*models.Order, bool, error) {
	if opts.IdempotencyKey != "" {
		if existing, err := findByIdempotencyKey(db, userID, opts.IdempotencyKey); err != nil {
			return nil, false, err
		} else if existing != nil {
			return existing, false, nil
		}
	}

	var orderID uint
	err := db.Transaction(func(tx *gorm.DB) error {
		q := tx.Table("cart_items").
			Select(`cart_items.id AS cart_item_id, cart_items.product_id, cart_items.qty,
				products.name, products.price, products.quantity AS stock, products.provider_id`).
			Joins("JOIN products ON products.id = cart_items.product_id").
			Where("cart_items.user_id = ?", userID)
		if opts.ProviderID != nil {
			q = q.Where("products.provider_id = ?", *opts.ProviderID)
		}

		var lines []checkoutLine
		if err := q.Scan(&lines).Error; err != nil {
			return err
		}
		if len(lines) == 0 {
			return ErrEmptyCart
		}

		total := decimal.Zero
		for _, l := range lines {
			if l.Qty > l.Stock {
				return &InsufficientStockError{Product: l.Name, Available: l.Stock}
			}
			total = total.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Qty))))
		}

		if opts.ExpectedAmount != nil &&
			opts.ExpectedAmount.Sub(total).Abs().GreaterThan(amountTolerance) {
			return ErrAmountMismatch
		}

		order := models.Order{
			UserID:     userID,
			Total:      total,
			Status:     models.OrderStatusPending,
			PaymentRef: opts.PaymentRef,
		}
		if opts.IdempotencyKey != "" {
			key := opts.IdempotencyKey
			order.IdempotencyKey = &key
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		providers := make(map[uint]struct{})
		cartIDs := make([]uint, 0, len(lines))
		for _, l := range lines {
			item := models.OrderItem{
				OrderID:   order.ID,
				ProductID: l.ProductID,
				Qty:       l.Qty,
				Price:     l.Price,
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}

			// Conditional decrement: the WHERE guard serializes competing
			// checkouts on the same product, so stock can never go negative.
			res := tx.Model(&models.Product{}).
				Where("id = ? AND quantity >= ?", l.ProductID, l.Qty).
				Update("quantity", gorm.Expr("quantity - ?", l.Qty))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				// The guard lost to a competing decrement, so the stock read
				// in step 1 is stale; report what is actually left.
				var fresh models.Product
				if err := tx.Select("quantity").First(&fresh, "id = ?", l.ProductID).Error; err != nil {
					return err
				}
				return &InsufficientStockError{Product: l.Name, Available: fresh.Quantity}
			}

			providers[l.ProviderID] = struct{}{}
			cartIDs = append(cartIDs, l.CartItemID)
		}

		for providerID := range providers {
			fulfillment := models.OrderFulfillment{
				OrderID:    order.ID,
				ProviderID: providerID,
				Status:     models.OrderStatusPending,
			}
			if err := tx.Create(&fulfillment).Error; err != nil {
				return err
			}
		}

		// Only the consumed lines go; a provider-scoped checkout leaves the
		// rest of the cart untouched.
		if err := tx.Where("id IN ?", cartIDs).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}

		orderID = order.ID
		return nil
	})
	if err != nil {
		// A retried call may fail (empty cart, unique key violation) because
		// the first attempt already consumed the cart; the stored key still
		// resolves to that order.
		if opts.IdempotencyKey != "" {
			if existing, lookupErr := findByIdempotencyKey(db, userID, opts.IdempotencyKey); lookupErr == nil && existing != nil {
				return existing, false, nil
			}
		}
		return nil, false, err
	}

	order, err := loadOrder(db, orderID)
	if err != nil {
		return nil, false, err
	}
	return order, true, nil
}

func findByIdempotencyKey(db *gorm.DB, userID uint, key string) (*models.Order, error) {
	var order models.Order
	err := db.Preload("Items").
		Where("user_id = ? AND idempotency_key = ?", userID, key).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func loadOrder(db *gorm.DB, orderID uint) (*models.Order, error) {
	var order models.Order
	if err := db.Preload("Items").First(&order, "id = ?", orderID).Error; err != nil {
		return nil, err
	}
	return &order, nil
}
