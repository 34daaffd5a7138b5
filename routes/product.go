package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	productControllers "github.com/ferditing/smart-livestock-backend/controllers/product"
	shopControllers "github.com/ferditing/smart-livestock-backend/controllers/shop"
	"github.com/ferditing/smart-livestock-backend/middleware"
)

func SetupProductRoutes(r *gin.Engine, db *gorm.DB) {
	// Public catalog reads
	r.GET("/products", productControllers.GetProducts(db))
	r.GET("/products/:id", productControllers.GetProductByID(db))
	r.GET("/shops", shopControllers.ListShops(db))

	// Seller catalog management
	seller := r.Group("/")
	seller.Use(middleware.ValidateToken)
	{
		seller.GET("/seller/products", productControllers.GetMyProducts(db))
		seller.POST("/products", productControllers.CreateProduct(db))
		seller.PUT("/products/:id", productControllers.UpdateProduct(db))
		seller.DELETE("/products/:id", productControllers.DeleteProduct(db))
	}
}
