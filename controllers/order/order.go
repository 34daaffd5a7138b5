package orderControllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/ferditing/smart-livestock-backend/models"
)

type CheckoutRequest struct {
	ProviderID *uint `json:"provider_id"`
}

// ItemView is an order item joined with current product display fields.
type ItemView struct {
	ID        uint            `json:"id"`
	OrderID   uint            `json:"order_id"`
	ProductID uint            `json:"product_id"`
	Qty       int             `json:"qty"`
	Price     decimal.Decimal `json:"price"`
	Name      string          `json:"name"`
	ImageURL  string          `json:"image_url"`
	Company   string          `json:"company"`
}

// OrderView is an order with display-joined items, the shape buyer-facing
// reads return.
type OrderView struct {
	models.Order
	ItemViews []ItemView `json:"items"`
}

// POST /orders/checkout
func CheckoutHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("user_id")

		var req CheckoutRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		order, created, err := Checkout(db, userID, CheckoutOptions{
			ProviderID:     req.ProviderID,
			IdempotencyKey: IdempotencyKey(c),
		})
		if err != nil {
			RespondCheckoutError(c, err, req.ProviderID != nil)
			return
		}

		if created {
			Broadcast(*order)
			c.JSON(http.StatusCreated, order)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

// GET /orders/mine
func GetMyOrders(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("user_id")

		var orders []models.Order
		if err := db.Where("user_id = ?", userID).
			Order("created_at DESC").
			Find(&orders).Error; err != nil {
			log.WithError(err).Error("failed to fetch orders")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
			return
		}

		views := make([]OrderView, 0, len(orders))
		for _, order := range orders {
			items, err := itemViews(db, order.ID, nil)
			if err != nil {
				log.WithError(err).Error("failed to fetch order items")
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch order items"})
				return
			}
			views = append(views, OrderView{Order: order, ItemViews: items})
		}

		c.JSON(http.StatusOK, views)
	}
}

// GET /orders/mine/:id
func GetMyOrder(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("user_id")
		orderID := c.Param("id")

		var order models.Order
		if err := db.Where("id = ? AND user_id = ?", orderID, userID).First(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
				return
			}
			log.WithError(err).Error("failed to fetch order")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch order"})
			return
		}

		items, err := itemViews(db, order.ID, nil)
		if err != nil {
			log.WithError(err).Error("failed to fetch order items")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch order items"})
			return
		}

		c.JSON(http.StatusOK, OrderView{Order: order, ItemViews: items})
	}
}

// itemViews loads an order's items joined with product display fields,
// optionally restricted to a set of product ids (the seller view passes its
// own products only).
func itemViews(db *gorm.DB, orderID uint, productIDs []uint) ([]ItemView, error) {
	q := db.Table("order_items").
		Select(`order_items.id, order_items.order_id, order_items.product_id,
			order_items.qty, order_items.price,
			products.name, products.image_url, products.company`).
		Joins("JOIN products ON products.id = order_items.product_id").
		Where("order_items.order_id = ?", orderID)
	if len(productIDs) > 0 {
		q = q.Where("order_items.product_id IN ?", productIDs)
	}

	var items []ItemView
	if err := q.Scan(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// RespondCheckoutError maps checkout failures onto the HTTP surface. Typed
// errors become 400s with stable messages; anything else is a logged 500.
func RespondCheckoutError(c *gin.Context, err error, scoped bool) {
	var stockErr *InsufficientStockError
	switch {
	case errors.Is(err, ErrEmptyCart):
		msg := "Cart is empty"
		if scoped {
			msg = "No items from this shop in cart"
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
	case errors.Is(err, ErrAmountMismatch):
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount does not match cart total"})
	case errors.As(err, &stockErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": stockErr.Error()})
	default:
		log.WithError(err).Error("checkout failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
	}
}
