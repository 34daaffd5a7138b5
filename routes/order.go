package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	orderControllers "github.com/ferditing/smart-livestock-backend/controllers/order"
	"github.com/ferditing/smart-livestock-backend/middleware"
)

func SetupOrderRoutes(r *gin.Engine, db *gorm.DB, notifier orderControllers.Notifier) {
	orders := r.Group("/orders")
	orders.Use(middleware.ValidateToken)
	{
		// Direct checkout, no gateway involved
		orders.POST("/checkout", orderControllers.CheckoutHandler(db))

		// Buyer order history
		orders.GET("/mine", orderControllers.GetMyOrders(db))
		orders.GET("/mine/:id", orderControllers.GetMyOrder(db))

		// Seller fulfillment view
		orders.GET("/seller", orderControllers.ListSellerOrders(db))
		orders.GET("/seller/export", orderControllers.ExportSellerOrders(db))
		orders.GET("/seller/:id", orderControllers.GetSellerOrder(db))
		orders.PATCH("/seller/:id/status", orderControllers.UpdateSellerOrderStatus(db, notifier))
	}

	// websocket endpoint for real-time order updates
	r.GET("/orders/ws", orderControllers.OrderWebSocketHandler)
}
