package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	ProviderID  uint            `gorm:"index;not null" json:"provider_id"`
	Name        string          `gorm:"not null" json:"name"`
	Company     string          `json:"company"`
	Description string          `json:"description"`
	ImageURL    string          `json:"image_url"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Quantity    int             `gorm:"not null;default:0" json:"quantity"` // available stock, never negative
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
