package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Order struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	TotalAmount     Money
	DiscountAmount  Money
	FinalAmount     Money
	Items           []OrderItem
	Status          OrderStatus
	PaymentRef      *string
	ShippingAddress *string
	BillingAddress  *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// OrderItem is the price snapshot taken at purchase time; it is never recalculated.
type OrderItem struct {
	ProductID   uuid.UUID
	Quantity    int
	UnitPrice   Money
	TotalPrice  Money
	PriceTierID uuid.UUID

	CreatedAt time.Time
}

// Validate checks the amount invariants every persisted order must hold.
func (o Order) Validate() error {
	if len(o.Items) == 0 {
		return fmt.Errorf("no items in order: %w", ErrValidation)
	}
	if o.DiscountAmount.IsNegative() || o.DiscountAmount.Amount.GreaterThan(o.TotalAmount.Amount) {
		return fmt.Errorf("discount %s exceeds total %s: %w", o.DiscountAmount, o.TotalAmount, ErrValidation)
	}
	if !o.FinalAmount.Amount.Equal(o.TotalAmount.Amount.Sub(o.DiscountAmount.Amount)) {
		return fmt.Errorf("final amount %s != total - discount: %w", o.FinalAmount, ErrValidation)
	}
	if o.FinalAmount.IsNegative() {
		return fmt.Errorf("final amount %s is negative: %w", o.FinalAmount, ErrValidation)
	}
	return nil
}

type Refund struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	RefundRef string
	Amount    Money
	Status    string

	CreatedAt time.Time
}
