package orderControllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/tealeg/xlsx"
	"gorm.io/gorm"
)

type exportRow struct {
	OrderID     uint
	OrderStatus string
	BuyerName   string
	ProductName string
	Qty         int
	Price       decimal.Decimal
	CreatedAt   time.Time
}

// GET /orders/seller/export
func ExportSellerOrders(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		provider, ok := requireProvider(c, db)
		if !ok {
			return
		}

		var rows []exportRow
		err := db.Table("order_items").
			Select(`orders.id AS order_id, orders.status AS order_status,
				users.name AS buyer_name, products.name AS product_name,
				order_items.qty, order_items.price, orders.created_at`).
			Joins("JOIN orders ON orders.id = order_items.order_id").
			Joins("JOIN products ON products.id = order_items.product_id").
			Joins("JOIN users ON users.id = orders.user_id").
			Where("products.provider_id = ?", provider.ID).
			Order("orders.created_at DESC").
			Scan(&rows).Error
		if err != nil {
			log.WithError(err).Error("failed to fetch export rows")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
			return
		}

		file := xlsx.NewFile()
		sheet, err := file.AddSheet("Orders")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel sheet"})
			return
		}

		headers := []string{"OrderID", "Status", "Buyer", "Product", "Qty", "UnitPrice", "LineTotal", "CreatedAt"}
		headerRow := sheet.AddRow()
		for _, h := range headers {
			headerRow.AddCell().SetValue(h)
		}

		for _, r := range rows {
			row := sheet.AddRow()
			row.AddCell().SetValue(r.OrderID)
			row.AddCell().SetValue(r.OrderStatus)
			row.AddCell().SetValue(r.BuyerName)
			row.AddCell().SetValue(r.ProductName)
			row.AddCell().SetValue(r.Qty)
			row.AddCell().SetValue(r.Price.String())
			row.AddCell().SetValue(r.Price.Mul(decimal.NewFromInt(int64(r.Qty))).String())
			row.AddCell().SetValue(r.CreatedAt.Format("2006-01-02 15:04:05"))
		}

		c.Header("Content-Disposition", "attachment; filename=orders.xlsx")
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Transfer-Encoding", "binary")
		c.Header("Expires", "0")

		if err := file.Write(c.Writer); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write Excel file"})
			return
		}
	}
}
