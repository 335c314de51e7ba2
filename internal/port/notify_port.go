package port

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/orderflow/internal/domain"
)

type NotificationSender interface {
	Send(ctx context.Context, n domain.Notification) error
}

// NotificationMarks remembers which users were recently sent an abandoned-cart notification.
type NotificationMarks interface {
	Exists(ctx context.Context, userID uuid.UUID) (bool, error)
	Set(ctx context.Context, userID uuid.UUID, ttl time.Duration) error
}
