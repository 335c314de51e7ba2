package domain

import "github.com/google/uuid"

type NotificationKind string

const (
	NotificationAbandonedCart     NotificationKind = "abandoned_cart"
	NotificationOrderConfirmed    NotificationKind = "order_confirmed"
	NotificationOrderShipped      NotificationKind = "order_shipped"
	NotificationOrderDelivered    NotificationKind = "order_delivered"
	NotificationOrderCancelled    NotificationKind = "order_cancelled"
	NotificationOrderStatusUpdate NotificationKind = "order_status_update"
)

// NotificationKindFor selects the notification sent when an order enters status.
func NotificationKindFor(status OrderStatus) NotificationKind {
	switch status {
	case OrderStatusConfirmed:
		return NotificationOrderConfirmed
	case OrderStatusShipped:
		return NotificationOrderShipped
	case OrderStatusDelivered:
		return NotificationOrderDelivered
	case OrderStatusCancelled:
		return NotificationOrderCancelled
	default:
		return NotificationOrderStatusUpdate
	}
}

type Notification struct {
	UserID  uuid.UUID
	Kind    NotificationKind
	Payload map[string]any
}
