package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	cartControllers "github.com/ferditing/smart-livestock-backend/controllers/cart"
	"github.com/ferditing/smart-livestock-backend/middleware"
)

func SetupCartRoutes(r *gin.Engine, db *gorm.DB) {
	cart := r.Group("/cart")
	cart.Use(middleware.ValidateToken)
	{
		cart.GET("", cartControllers.GetCart(db))
		cart.POST("/add", cartControllers.AddItem(db))
		cart.PUT("/:id", cartControllers.UpdateItem(db))
		cart.DELETE("/:id", cartControllers.RemoveItem(db))
		cart.DELETE("", cartControllers.ClearCart(db))
	}
}
