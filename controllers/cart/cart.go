package cartControllers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/ferditing/smart-livestock-backend/models"
)

type AddItemInput struct {
	ProductID uint `json:"product_id" binding:"required"`
	Qty       int  `json:"qty"`
}

type UpdateItemInput struct {
	Qty int `json:"qty" binding:"required,min=1"`
}

// CartRow is a cart line joined with current product and shop fields for UI
// rendering. Stock here is advisory; checkout re-validates inside its
// transaction.
type CartRow struct {
	ID          uint            `json:"id"`
	Qty         int             `json:"qty"`
	ProductID   uint            `json:"product_id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image_url"`
	Stock       int             `json:"stock"`
	Company     string          `json:"company"`
	Description string          `json:"description"`
	ProviderID  uint            `json:"provider_id"`
	ShopName    string          `json:"shop_name"`
}

// GET /cart
func GetCart(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("user_id")

		var rows []CartRow
		err := db.Table("cart_items").
			Select(`cart_items.id, cart_items.qty, cart_items.product_id,
				products.name, products.price, products.image_url,
				products.quantity AS stock, products.company, products.description,
				products.provider_id,
				COALESCE(NULLIF(providers.name, ''), users.name) AS shop_name`).
			Joins("JOIN products ON products.id = cart_items.product_id").
			Joins("JOIN providers ON providers.id = products.provider_id").
			Joins("JOIN users ON users.id = providers.user_id").
			Where("cart_items.user_id = ?", userID).
			Scan(&rows).Error
		if err != nil {
			log.WithError(err).Error("failed to fetch cart")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart"})
			return
		}

		c.JSON(http.StatusOK, rows)
	}
}

// POST /cart/add
func AddItem(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("user_id")

		var input AddItemInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}
		if input.Qty <= 0 {
			input.Qty = 1
		}

		var product models.Product
		if err := db.First(&product, "id = ?", input.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
				return
			}
			log.WithError(err).Error("failed to validate product")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to validate product"})
			return
		}

		if product.Quantity < input.Qty {
			c.JSON(http.StatusBadRequest, gin.H{"error": insufficientStockMsg(product)})
			return
		}

		var item models.CartItem
		err := db.Where("user_id = ? AND product_id = ?", userID, input.ProductID).First(&item).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				item = models.CartItem{
					UserID:    userID,
					ProductID: product.ID,
					Qty:       input.Qty,
				}
				if err := db.Create(&item).Error; err != nil {
					log.WithError(err).Error("failed to add cart item")
					c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add item to cart"})
					return
				}
				c.JSON(http.StatusCreated, item)
				return
			}
			log.WithError(err).Error("failed to fetch cart item")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart item"})
			return
		}

		// Existing line: add-to-cart increments, capped by current stock.
		newQty := item.Qty + input.Qty
		if newQty > product.Quantity {
			c.JSON(http.StatusBadRequest, gin.H{"error": insufficientStockMsg(product)})
			return
		}
		item.Qty = newQty
		if err := db.Save(&item).Error; err != nil {
			log.WithError(err).Error("failed to update cart item")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cart item"})
			return
		}

		c.JSON(http.StatusOK, item)
	}
}

// PUT /cart/:id
func UpdateItem(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("user_id")
		lineID := c.Param("id")

		var input UpdateItemInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		var item models.CartItem
		if err := db.Where("id = ? AND user_id = ?", lineID, userID).First(&item).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Cart item not found"})
				return
			}
			log.WithError(err).Error("failed to fetch cart item")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart item"})
			return
		}

		var product models.Product
		if err := db.First(&product, "id = ?", item.ProductID).Error; err != nil {
			log.WithError(err).Error("failed to fetch product")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch product"})
			return
		}

		if input.Qty > product.Quantity {
			c.JSON(http.StatusBadRequest, gin.H{"error": insufficientStockMsg(product)})
			return
		}

		// Overwrite, not increment.
		item.Qty = input.Qty
		if err := db.Save(&item).Error; err != nil {
			log.WithError(err).Error("failed to update cart item")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cart item"})
			return
		}

		c.JSON(http.StatusOK, item)
	}
}

// DELETE /cart/:id
func RemoveItem(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("user_id")
		lineID := c.Param("id")

		if err := db.Where("id = ? AND user_id = ?", lineID, userID).
			Delete(&models.CartItem{}).Error; err != nil {
			log.WithError(err).Error("failed to delete cart item")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete item"})
			return
		}

		// Deleting an absent line is not an error.
		c.JSON(http.StatusOK, gin.H{"deleted": true})
	}
}

// DELETE /cart
func ClearCart(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("user_id")

		if err := db.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error; err != nil {
			log.WithError(err).Error("failed to clear cart")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear cart"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"deleted": true})
	}
}

func insufficientStockMsg(p models.Product) string {
	return fmt.Sprintf("Insufficient stock for %s. Available: %d", p.Name, p.Quantity)
}
