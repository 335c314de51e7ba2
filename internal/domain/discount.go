package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DiscountToken is a one-time percentage discount consumed by the user's next order.
type DiscountToken struct {
	UserID  uuid.UUID
	Percent decimal.Decimal
	// TTL is the lifetime left when the token was read.
	TTL time.Duration
}
