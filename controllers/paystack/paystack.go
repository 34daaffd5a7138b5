package paystackControllers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	orderControllers "github.com/ferditing/smart-livestock-backend/controllers/order"
	"github.com/ferditing/smart-livestock-backend/models"
)

const refPrefix = "PSK"

type InitializeRequest struct {
	Amount     *decimal.Decimal `json:"amount"`
	Email      string           `json:"email" binding:"required,email"`
	ProviderID *uint            `json:"provider_id"`
}

type VerifyRequest struct {
	Reference string `json:"reference" binding:"required"`
}

type ReinitializeRequest struct {
	OrderID uint `json:"order_id" binding:"required"`
}

// generatePaymentRef mints a collision-resistant reference. The timestamp
// gives rough ordering, the uuid fragment the randomness; the unique index on
// orders.payment_ref is the backstop.
func generatePaymentRef() string {
	rand := strings.SplitN(uuid.NewString(), "-", 2)[0]
	return fmt.Sprintf("%s-%d-%s", refPrefix, time.Now().UnixMilli(), rand)
}

// authorizationURL is the stubbed gateway-redirect handle; the real hosted
// page is out of scope.
func authorizationURL(kind, reference string) string {
	return fmt.Sprintf("about:blank#paystack-%s-%s", kind, reference)
}

// POST /orders/paystack/initialize
//
// Runs a checkout with a freshly minted payment reference so the reference
// can never exist without a backing order. The optional amount must match
// the computed total within one currency unit.
func Initialize(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("user_id")

		var req InitializeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "email is required for Paystack initialization"})
			return
		}

		reference := generatePaymentRef()
		order, created, err := orderControllers.Checkout(db, userID, orderControllers.CheckoutOptions{
			ProviderID:     req.ProviderID,
			PaymentRef:     &reference,
			ExpectedAmount: req.Amount,
			IdempotencyKey: orderControllers.IdempotencyKey(c),
		})
		if err != nil {
			orderControllers.RespondCheckoutError(c, err, req.ProviderID != nil)
			return
		}

		status := http.StatusOK
		if created {
			orderControllers.Broadcast(*order)
			status = http.StatusCreated
		}
		if order.PaymentRef != nil {
			// A replayed checkout keeps its original reference.
			reference = *order.PaymentRef
		}

		c.JSON(status, gin.H{
			"authorization_url": authorizationURL("mock", reference),
			"reference":         reference,
			"order":             order,
		})
	}
}

// POST /orders/paystack/verify
//
// Consumes a reference: a pending order advances to processing, anything
// else is a no-op. Idempotent by construction.
func Verify(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("user_id")

		var req VerifyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "reference is required"})
			return
		}

		var order models.Order
		err := db.Where("payment_ref = ? AND user_id = ?", req.Reference, userID).First(&order).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Order not found for this reference"})
				return
			}
			log.WithError(err).Error("failed to fetch order by reference")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
			return
		}

		if order.Status == models.OrderStatusPending {
			err := db.Transaction(func(tx *gorm.DB) error {
				if err := tx.Model(&models.Order{}).
					Where("id = ? AND status = ?", order.ID, models.OrderStatusPending).
					Update("status", models.OrderStatusProcessing).Error; err != nil {
					return err
				}
				// Payment confirmation applies to every seller's portion.
				return tx.Model(&models.OrderFulfillment{}).
					Where("order_id = ? AND status = ?", order.ID, models.OrderStatusPending).
					Update("status", models.OrderStatusProcessing).Error
			})
			if err != nil {
				log.WithError(err).Error("failed to confirm payment")
				c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
				return
			}
		}

		var updated models.Order
		if err := db.Preload("Items").First(&updated, "id = ?", order.ID).Error; err != nil {
			log.WithError(err).Error("failed to reload order")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
			return
		}

		c.JSON(http.StatusOK, updated)
	}
}

// POST /orders/paystack/reinitialize
//
// Remints the reference for an existing order so the buyer can retry a
// failed gateway session. Stock, items and total were committed at the
// original checkout and stay untouched.
func Reinitialize(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("user_id")

		var req ReinitializeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "order_id is required"})
			return
		}

		var order models.Order
		err := db.Where("id = ? AND user_id = ?", req.OrderID, userID).First(&order).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
				return
			}
			log.WithError(err).Error("failed to fetch order")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
			return
		}

		reference := generatePaymentRef()
		if err := db.Model(&models.Order{}).
			Where("id = ?", order.ID).
			Update("payment_ref", reference).Error; err != nil {
			log.WithError(err).Error("failed to remint payment reference")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
			return
		}

		var updated models.Order
		if err := db.Preload("Items").First(&updated, "id = ?", order.ID).Error; err != nil {
			log.WithError(err).Error("failed to reload order")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"authorization_url": authorizationURL("reinit", reference),
			"reference":         reference,
			"order":             updated,
		})
	}
}
