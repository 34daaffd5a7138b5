package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ferditing/smart-livestock-backend/sms"
)

// SetupRoutes is the single entry point that wires up every route group.
func SetupRoutes(r *gin.Engine, db *gorm.DB) {
	notifier := sms.FromEnv()

	SetupCartRoutes(r, db)
	SetupOrderRoutes(r, db, notifier)
	SetupPaystackRoutes(r, db)
	SetupProductRoutes(r, db)
}
