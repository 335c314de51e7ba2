package testutil

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/nikolayk812/orderflow/internal/domain"
	"github.com/nikolayk812/orderflow/internal/port"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/currency"
)

func INR(s string) domain.Money {
	return domain.NewMoney(decimal.RequireFromString(s), currency.INR)
}

type Catalog struct {
	UserID    uuid.UUID
	ProductID uuid.UUID
	TierID    uuid.UUID
}

// SeedCatalog inserts a user and an active product with a single open-ended tier at unitPrice.
func SeedCatalog(t *testing.T, store port.Store, stock int, unitPrice string) Catalog {
	t.Helper()
	ctx := t.Context()

	var (
		c   Catalog
		err error
	)

	c.UserID, err = store.Users().InsertUser(ctx, domain.User{
		Email:          gofakeit.Email(),
		Name:           gofakeit.Name(),
		TotalPurchases: INR("0"),
	})
	require.NoError(t, err)

	c.ProductID = SeedProduct(t, store, stock, unitPrice)

	tiers, err := store.Prices().ListActive(ctx, c.ProductID)
	require.NoError(t, err)
	c.TierID = tiers[0].ID

	return c
}

func SeedProduct(t *testing.T, store port.Store, stock int, unitPrice string) uuid.UUID {
	t.Helper()
	ctx := t.Context()

	productID, err := store.Products().InsertProduct(ctx, domain.Product{
		Name:         gofakeit.ProductName(),
		IsActive:     true,
		CurrentStock: stock,
	})
	require.NoError(t, err)

	price := INR(unitPrice)
	_, err = store.Prices().InsertPriceTier(ctx, domain.PriceTier{
		ProductID:  productID,
		BatchStart: 1,
		Price:      price,
		CostPrice:  price.Percent(decimal.NewFromInt(50)),
		IsActive:   true,
	})
	require.NoError(t, err)

	return productID
}

// Redis starts a miniredis server and a client closed with the test.
func Redis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
	})

	return client, mr
}
