package productControllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/ferditing/smart-livestock-backend/models"
)

type ProductInput struct {
	Name        string          `json:"name" binding:"required"`
	Company     string          `json:"company"`
	Description string          `json:"description"`
	ImageURL    string          `json:"image_url"`
	Price       decimal.Decimal `json:"price"`
	Quantity    *int            `json:"quantity"`
}

// GET /products
func GetProducts(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := db.Order("created_at DESC")
		if providerID := c.Query("provider_id"); providerID != "" {
			q = q.Where("provider_id = ?", providerID)
		}

		var products []models.Product
		if err := q.Find(&products).Error; err != nil {
			log.WithError(err).Error("failed to fetch products")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
			return
		}
		c.JSON(http.StatusOK, products)
	}
}

// GET /products/:id
func GetProductByID(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var product models.Product
		if err := db.First(&product, "id = ?", c.Param("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
				return
			}
			log.WithError(err).Error("failed to fetch product")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch product"})
			return
		}
		c.JSON(http.StatusOK, product)
	}
}

// GET /seller/products
func GetMyProducts(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		provider, ok := requireProvider(c, db)
		if !ok {
			return
		}

		var products []models.Product
		if err := db.Where("provider_id = ?", provider.ID).
			Order("created_at DESC").
			Find(&products).Error; err != nil {
			log.WithError(err).Error("failed to fetch seller products")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
			return
		}
		c.JSON(http.StatusOK, products)
	}
}

// POST /products
func CreateProduct(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		provider, ok := requireProvider(c, db)
		if !ok {
			return
		}

		var input ProductInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name required"})
			return
		}

		product := models.Product{
			ProviderID:  provider.ID,
			Name:        input.Name,
			Company:     input.Company,
			Description: input.Description,
			ImageURL:    input.ImageURL,
			Price:       input.Price,
		}
		if input.Quantity != nil {
			product.Quantity = *input.Quantity
		}

		if err := db.Create(&product).Error; err != nil {
			log.WithError(err).Error("failed to create product")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
			return
		}
		c.JSON(http.StatusCreated, product)
	}
}

// PUT /products/:id
func UpdateProduct(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		provider, ok := requireProvider(c, db)
		if !ok {
			return
		}

		var product models.Product
		if err := db.Where("id = ? AND provider_id = ?", c.Param("id"), provider.ID).
			First(&product).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
				return
			}
			log.WithError(err).Error("failed to fetch product")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch product"})
			return
		}

		var changes map[string]interface{}
		if err := c.ShouldBindJSON(&changes); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		// Stock is only mutated through checkout's conditional decrement or
		// an explicit catalog restock here; both go through the same column.
		allowed := map[string]bool{
			"name": true, "company": true, "description": true,
			"image_url": true, "price": true, "quantity": true,
		}
		for k := range changes {
			if !allowed[k] {
				delete(changes, k)
			}
		}
		if len(changes) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no updatable fields supplied"})
			return
		}

		if err := db.Model(&product).Updates(changes).Error; err != nil {
			log.WithError(err).Error("failed to update product")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
			return
		}

		var updated models.Product
		if err := db.First(&updated, "id = ?", product.ID).Error; err != nil {
			log.WithError(err).Error("failed to reload product")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch product"})
			return
		}
		c.JSON(http.StatusOK, updated)
	}
}

// DELETE /products/:id
func DeleteProduct(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		provider, ok := requireProvider(c, db)
		if !ok {
			return
		}

		if err := db.Where("id = ? AND provider_id = ?", c.Param("id"), provider.ID).
			Delete(&models.Product{}).Error; err != nil {
			log.WithError(err).Error("failed to delete product")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete product"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": true})
	}
}

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
