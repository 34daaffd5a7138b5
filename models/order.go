package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"    // created, awaiting payment confirmation
	OrderStatusProcessing OrderStatus = "processing" // payment confirmed, seller preparing
	OrderStatusShipped    OrderStatus = "shipped"    // out for delivery
	OrderStatusDelivered  OrderStatus = "delivered"  // buyer received the items
	OrderStatusCancelled  OrderStatus = "cancelled"
)

type Order struct {
	ID     uint            `gorm:"primaryKey" json:"id"`
	UserID uint            `gorm:"index;uniqueIndex:idx_orders_user_idem_key;not null" json:"user_id"`
	Total  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`
	Status OrderStatus     `gorm:"type:VARCHAR(20);default:'pending';index" json:"status"`

	// PaymentRef is minted at gateway initialization (or re-initialization)
	// and consumed exactly once by verification. Nullable so direct checkout
	// orders carry no reference; unique so a reference resolves to one order.
	PaymentRef *string `gorm:"uniqueIndex" json:"payment_ref"`

	// IdempotencyKey dedupes retried checkout calls per buyer. Nullable so
	// keyless checkouts never collide.
	IdempotencyKey *string `gorm:"uniqueIndex:idx_orders_user_idem_key" json:"-"`

	Items        []OrderItem        `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	Fulfillments []OrderFulfillment `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"fulfillments,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// OrderItem freezes product, quantity and unit price at purchase time.
// Immutable after creation; later catalog price changes do not touch it.
type OrderItem struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	OrderID   uint            `gorm:"index;not null" json:"order_id"`
	ProductID uint            `gorm:"index;not null" json:"product_id"`
	Qty       int             `gorm:"not null" json:"qty"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
}

// OrderFulfillment tracks one seller's portion of an order. An order spanning
// several agrovets gets one row per contributing provider, so a seller's
// status change never clobbers another seller's progress. Order.Status is
// derived from these rows as an aggregate.
type OrderFulfillment struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	OrderID    uint        `gorm:"uniqueIndex:idx_fulfillment_order_provider;not null" json:"order_id"`
	ProviderID uint        `gorm:"uniqueIndex:idx_fulfillment_order_provider;not null" json:"provider_id"`
	Status     OrderStatus `gorm:"type:VARCHAR(20);default:'pending'" json:"status"`
	UpdatedAt  time.Time   `json:"updated_at"`
}
