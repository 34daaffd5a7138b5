package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	paystackControllers "github.com/ferditing/smart-livestock-backend/controllers/paystack"
	"github.com/ferditing/smart-livestock-backend/middleware"
)

func SetupPaystackRoutes(r *gin.Engine, db *gorm.DB) {
	paystack := r.Group("/orders/paystack")
	paystack.Use(middleware.ValidateToken)
	{
		paystack.POST("/initialize", paystackControllers.Initialize(db))
		paystack.POST("/verify", paystackControllers.Verify(db))
		paystack.POST("/reinitialize", paystackControllers.Reinitialize(db))
	}
}
