package shopControllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type ShopRow struct {
	ID           uint   `json:"id"`
	ShopName     string `json:"shop_name"`
	County       string `json:"county"`
	SubCounty    string `json:"sub_county"`
	ProductCount int    `json:"product_count"`
}

// GET /shops
func ListShops(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := db.Table("providers").
			Select(`providers.id,
				COALESCE(NULLIF(providers.name, ''), users.name) AS shop_name,
				users.county, users.sub_county,
				COUNT(products.id) AS product_count`).
			Joins("JOIN users ON users.id = providers.user_id").
			Joins("LEFT JOIN products ON products.provider_id = providers.id").
			Where("providers.provider_type = ?", "agrovet").
			Group("providers.id, providers.name, users.name, users.county, users.sub_county")

		if search := c.Query("search"); search != "" {
			q = q.Where("providers.name LIKE ? OR users.name LIKE ?", "%"+search+"%", "%"+search+"%")
		}

		var rows []ShopRow
		if err := q.Scan(&rows).Error; err != nil {
			log.WithError(err).Error("failed to fetch shops")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
			return
		}

		c.JSON(http.StatusOK, rows)
	}
}
