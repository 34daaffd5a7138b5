package models

import "time"

// Provider is the seller-side record behind an agrovet user. Products and
// fulfillment state hang off the provider, not the user account.
type Provider struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"index;not null" json:"user_id"`
	Name         string    `json:"name"` // shop display name
	ProviderType string    `gorm:"type:VARCHAR(20);default:'agrovet'" json:"provider_type"`
	CreatedAt    time.Time `json:"created_at"`
}
