package orderControllers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ferditing/smart-livestock-backend/models"
)

// Notifier delivers a best-effort message to a buyer's phone. Failures are
// logged and swallowed; they never affect the owning request.
type Notifier interface {
	Send(phone, message string) error
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type BuyerSummary struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// SellerOrder is one order restricted to a single seller's view: only that
// seller's line items, that seller's fulfillment status, and the buyer
// contact summary.
type SellerOrder struct {
	ID                uint               `json:"id"`
	UserID            uint               `json:"user_id"`
	Total             decimal.Decimal    `json:"total"`
	Status            models.OrderStatus `json:"status"`
	FulfillmentStatus models.OrderStatus `json:"fulfillment_status"`
	CreatedAt         string             `json:"created_at"`
	Items             []ItemView         `json:"items"`
	Buyer             BuyerSummary       `json:"buyer"`
}

// GET /orders/seller
func ListSellerOrders(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		provider, ok := requireProvider(c, db)
		if !ok {
			return
		}

		productIDs, err := providerProductIDs(db, provider.ID)
		if err != nil {
			log.WithError(err).Error("failed to fetch seller products")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
			return
		}
		if len(productIDs) == 0 {
			c.JSON(http.StatusOK, []SellerOrder{})
			return
		}

		var orderIDs []uint
		if err := db.Table("order_items").
			Distinct("order_id").
			Where("product_id IN ?", productIDs).
			Pluck("order_id", &orderIDs).Error; err != nil {
			log.WithError(err).Error("failed to fetch seller order ids")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
			return
		}
		if len(orderIDs) == 0 {
			c.JSON(http.StatusOK, []SellerOrder{})
			return
		}

		var orders []models.Order
		if err := db.Where("id IN ?", orderIDs).
			Order("created_at DESC").
			Find(&orders).Error; err != nil {
			log.WithError(err).Error("failed to fetch seller orders")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
			return
		}

		views := make([]SellerOrder, 0, len(orders))
		for _, order := range orders {
			view, err := sellerOrderView(db, order, provider.ID, productIDs)
			if err != nil {
				log.WithError(err).Error("failed to build seller order view")
				c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
				return
			}
			views = append(views, view)
		}

		c.JSON(http.StatusOK, views)
	}
}

// GET /orders/seller/:id
func GetSellerOrder(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		provider, ok := requireProvider(c, db)
		if !ok {
			return
		}

		var order models.Order
		if err := db.First(&order, "id = ?", c.Param("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
				return
			}
			log.WithError(err).Error("failed to fetch order")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
			return
		}

		productIDs, err := providerProductIDs(db, provider.ID)
		if err != nil {
			log.WithError(err).Error("failed to fetch seller products")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
			return
		}
		owns, err := orderContainsProducts(db, order.ID, productIDs)
		if err != nil {
			log.WithError(err).Error("failed to check order ownership")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
			return
		}
		// An order with none of this seller's lines reads as absent, unlike
		// the status update where the attempt itself is forbidden.
		if !owns {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}

		view, err := sellerOrderView(db, order, provider.ID, productIDs)
		if err != nil {
			log.WithError(err).Error("failed to build seller order view")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
			return
		}

		c.JSON(http.StatusOK, view)
	}
}

// PATCH /orders/seller/:id/status
func UpdateSellerOrderStatus(db *gorm.DB, notifier Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		provider, ok := requireProvider(c, db)
		if !ok {
			return
		}

		var req UpdateStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		newStatus, err := mapOrderStatus(req.Status)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		orderID := c.Param("id")
		var order models.Order
		if err := db.First(&order, "id = ?", orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
				return
			}
			log.WithError(err).Error("failed to fetch order")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
			return
		}

		productIDs, err := providerProductIDs(db, provider.ID)
		if err != nil {
			log.WithError(err).Error("failed to fetch seller products")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
			return
		}
		owns, err := orderContainsProducts(db, order.ID, productIDs)
		if err != nil {
			log.WithError(err).Error("failed to check order ownership")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
			return
		}
		if !owns {
			c.JSON(http.StatusForbidden, gin.H{"error": "Order contains none of your products"})
			return
		}

		err = db.Transaction(func(tx *gorm.DB) error {
			fulfillment := models.OrderFulfillment{
				OrderID:    order.ID,
				ProviderID: provider.ID,
				Status:     newStatus,
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "order_id"}, {Name: "provider_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
			}).Create(&fulfillment).Error; err != nil {
				return err
			}

			var statuses []models.OrderStatus
			if err := tx.Model(&models.OrderFulfillment{}).
				Where("order_id = ?", order.ID).
				Pluck("status", &statuses).Error; err != nil {
				return err
			}

			return tx.Model(&models.Order{}).
				Where("id = ?", order.ID).
				Update("status", deriveOrderStatus(statuses)).Error
		})
		if err != nil {
			log.WithError(err).Error("failed to update order status")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update order status"})
			return
		}

		var updated models.Order
		if err := db.Preload("Items").Preload("Fulfillments").
			First(&updated, "id = ?", order.ID).Error; err != nil {
			log.WithError(err).Error("failed to reload order")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
			return
		}

		notifyBuyer(db, notifier, updated.ID, updated.UserID, newStatus)
		Broadcast(updated)

		c.JSON(http.StatusOK, updated)
	}
}

// notifyBuyer fires the status SMS in the background; delivery failure never
// rolls back or fails the status update.
func notifyBuyer(db *gorm.DB, notifier Notifier, orderID, buyerID uint, status models.OrderStatus) {
	if notifier == nil {
		return
	}

	var buyer models.User
	if err := db.Select("name", "phone").First(&buyer, "id = ?", buyerID).Error; err != nil {
		log.WithError(err).Warn("buyer lookup for notification failed")
		return
	}
	if buyer.Phone == "" {
		return
	}

	msg := fmt.Sprintf("SmartLivestock: Your order #%d status is now %q. Thank you for your business.", orderID, status)
	go func() {
		if err := notifier.Send(buyer.Phone, msg); err != nil {
			log.WithError(err).WithField("order_id", orderID).Warn("order status notification failed")
		}
	}()
}

// requireProvider gates seller endpoints: agrovet/admin role plus a
// registered provider record.
func requireProvider(c *gin.Context, db *gorm.DB) (models.Provider, bool) {
	role := c.GetString("role")
	if role != models.RoleAgrovet && role != models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "agrovets only"})
		return models.Provider{}, false
	}

	var provider models.Provider
	if err := db.Where("user_id = ?", c.GetUint("user_id")).First(&provider).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "provider profile not registered"})
			return models.Provider{}, false
		}
		log.WithError(err).Error("failed to fetch provider")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return models.Provider{}, false
	}
	return provider, true
}

func providerProductIDs(db *gorm.DB, providerID uint) ([]uint, error) {
	var ids []uint
	err := db.Model(&models.Product{}).
		Where("provider_id = ?", providerID).
		Pluck("id", &ids).Error
	return ids, err
}

func orderContainsProducts(db *gorm.DB, orderID uint, productIDs []uint) (bool, error) {
	if len(productIDs) == 0 {
		return false, nil
	}
	var count int64
	err := db.Model(&models.OrderItem{}).
		Where("order_id = ? AND product_id IN ?", orderID, productIDs).
		Count(&count).Error
	return count > 0, err
}

func sellerOrderView(db *gorm.DB, order models.Order, providerID uint, productIDs []uint) (SellerOrder, error) {
	items, err := itemViews(db, order.ID, productIDs)
	if err != nil {
		return SellerOrder{}, err
	}

	var buyer BuyerSummary
	if err := db.Model(&models.User{}).
		Select("id", "name", "email", "phone").
		Where("id = ?", order.UserID).
		Scan(&buyer).Error; err != nil {
		return SellerOrder{}, err
	}

	fulfillmentStatus := models.OrderStatusPending
	var fulfillment models.OrderFulfillment
	err = db.Where("order_id = ? AND provider_id = ?", order.ID, providerID).First(&fulfillment).Error
	if err == nil {
		fulfillmentStatus = fulfillment.Status
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return SellerOrder{}, err
	}

	return SellerOrder{
		ID:                order.ID,
		UserID:            order.UserID,
		Total:             order.Total,
		Status:            order.Status,
		FulfillmentStatus: fulfillmentStatus,
		CreatedAt:         order.CreatedAt.Format("2006-01-02 15:04:05"),
		Items:             items,
		Buyer:             buyer,
	}, nil
}
