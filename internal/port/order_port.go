package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/nikolayk812/orderflow/internal/domain"
)

type OrderRepository interface {
	GetOrder(ctx context.Context, orderID uuid.UUID) (domain.Order, error)

	// LockOrder holds the order row until the surrounding transaction ends.
	LockOrder(ctx context.Context, orderID uuid.UUID) error

	SearchOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error)

	InsertOrder(ctx context.Context, order domain.Order) (uuid.UUID, error)

	// CompareAndSetStatus moves the order to `to` only while it is still in `from`.
	// A nil paymentRef keeps the stored one. Returns false when the guard did not match.
	CompareAndSetStatus(ctx context.Context, orderID uuid.UUID, from, to domain.OrderStatus, paymentRef *string) (bool, error)

	InsertRefund(ctx context.Context, refund domain.Refund) (uuid.UUID, error)
	ListRefunds(ctx context.Context, orderID uuid.UUID) ([]domain.Refund, error)
}
