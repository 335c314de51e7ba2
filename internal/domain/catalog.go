package domain

import (
	"time"

	"github.com/google/uuid"
)

type Product struct {
	ID           uuid.UUID
	Name         string
	IsActive     bool
	CurrentStock int
	TotalSold    int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PriceTier is a quantity band of a product's pricing. BatchEnd is nil for an open-ended band.
type PriceTier struct {
	ID         uuid.UUID
	ProductID  uuid.UUID
	BatchStart int
	BatchEnd   *int
	Price      Money
	CostPrice  Money
	IsActive   bool

	CreatedAt time.Time
}

// Contains reports whether qty falls inside the band, both ends inclusive.
func (t PriceTier) Contains(qty int) bool {
	if qty < t.BatchStart {
		return false
	}
	return t.BatchEnd == nil || qty <= *t.BatchEnd
}

func (t PriceTier) Validate() error {
	if !t.Price.Amount.GreaterThan(t.CostPrice.Amount) {
		return ErrValidation
	}
	if t.BatchEnd != nil && *t.BatchEnd <= t.BatchStart {
		return ErrValidation
	}
	return nil
}

type User struct {
	ID               uuid.UUID
	Email            string
	Name             string
	TotalPurchases   Money
	DiscountEligible bool
}
