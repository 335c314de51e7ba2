package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/nikolayk812/orderflow/internal/domain"
	"github.com/shopspring/decimal"
)

type ProductRepository interface {
	GetProduct(ctx context.Context, productID uuid.UUID) (domain.Product, error)
	InsertProduct(ctx context.Context, product domain.Product) (uuid.UUID, error)

	// DecrementStock subtracts qty from the stock and adds it to total sold, only while enough
	// stock remains. Returns domain.ErrOutOfStock otherwise.
	DecrementStock(ctx context.Context, productID uuid.UUID, qty int) error
}

type PriceTierRepository interface {
	// ListActive returns the active tiers of a product ordered by batch start, then creation time.
	ListActive(ctx context.Context, productID uuid.UUID) ([]domain.PriceTier, error)
	InsertPriceTier(ctx context.Context, tier domain.PriceTier) (uuid.UUID, error)
}

type UserRepository interface {
	GetUser(ctx context.Context, userID uuid.UUID) (domain.User, error)
	InsertUser(ctx context.Context, user domain.User) (uuid.UUID, error)

	// CreditPurchases adds amount to the lifetime total and sets the discount flag once the
	// total exceeds threshold. The flag is never cleared.
	CreditPurchases(ctx context.Context, userID uuid.UUID, amount domain.Money, threshold decimal.Decimal) (domain.User, error)
}
