package orderControllers

import (
	"errors"
	"strings"

	"github.com/ferditing/smart-livestock-backend/models"
)

var ErrInvalidStatus = errors.New("invalid order status. Use: pending, processing, shipped, delivered, cancelled")

// mapOrderStatus validates a client-supplied status against the fixed set.
// Membership is the only check; the flow does not enforce forward-only
// ordering of shipped/delivered.
func mapOrderStatus(status string) (models.OrderStatus, error) {
	switch strings.ToLower(status) {
	case string(models.OrderStatusPending):
		return models.OrderStatusPending, nil
	case string(models.OrderStatusProcessing):
		return models.OrderStatusProcessing, nil
	case string(models.OrderStatusShipped):
		return models.OrderStatusShipped, nil
	case string(models.OrderStatusDelivered):
		return models.OrderStatusDelivered, nil
	case string(models.OrderStatusCancelled):
		return models.OrderStatusCancelled, nil
	default:
		return "", ErrInvalidStatus
	}
}

var statusRank = map[models.OrderStatus]int{
	models.OrderStatusPending:    0,
	models.OrderStatusProcessing: 1,
	models.OrderStatusShipped:    2,
	models.OrderStatusDelivered:  3,
}

// deriveOrderStatus aggregates per-seller fulfillment statuses into the
// order-wide status: the least-advanced non-cancelled portion wins, so the
// order only reads "delivered" once every seller's portion is delivered.
// An order is cancelled only when every portion is cancelled.
func deriveOrderStatus(statuses []models.OrderStatus) models.OrderStatus {
	if len(statuses) == 0 {
		return models.OrderStatusPending
	}

	derived := models.OrderStatus("")
	allCancelled := true
	for _, s := range statuses {
		if s == models.OrderStatusCancelled {
			continue
		}
		allCancelled = false
		if derived == "" || statusRank[s] < statusRank[derived] {
			derived = s
		}
	}
	if allCancelled {
		return models.OrderStatusCancelled
	}
	return derived
}
