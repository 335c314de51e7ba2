package repository_test

import (
	"context"
	"fmt"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/nikolayk812/orderflow/internal/domain"
	"github.com/nikolayk812/orderflow/internal/port"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

func inr(s string) domain.Money {
	return domain.NewMoney(decimal.RequireFromString(s), currency.INR)
}

func fakeUser() domain.User {
	return domain.User{
		Email:          gofakeit.Email(),
		Name:           gofakeit.Name(),
		TotalPurchases: inr("0"),
	}
}

func fakeProduct(stock int) domain.Product {
	return domain.Product{
		Name:         gofakeit.ProductName(),
		IsActive:     true,
		CurrentStock: stock,
	}
}

type fixture struct {
	userID    uuid.UUID
	productID uuid.UUID
	tierID    uuid.UUID
}

// seed inserts a user and a product with stock and a single 10.00 INR open-ended tier.
func seed(ctx context.Context, store port.Store, stock int) (fixture, error) {
	var f fixture
	var err error

	f.userID, err = store.Users().InsertUser(ctx, fakeUser())
	if err != nil {
		return f, fmt.Errorf("InsertUser: %w", err)
	}

	f.productID, err = store.Products().InsertProduct(ctx, fakeProduct(stock))
	if err != nil {
		return f, fmt.Errorf("InsertProduct: %w", err)
	}

	f.tierID, err = store.Prices().InsertPriceTier(ctx, domain.PriceTier{
		ProductID:  f.productID,
		BatchStart: 1,
		Price:      inr("10.00"),
		CostPrice:  inr("6.00"),
		IsActive:   true,
	})
	if err != nil {
		return f, fmt.Errorf("InsertPriceTier: %w", err)
	}

	return f, nil
}

func orderFor(f fixture, qty int) domain.Order {
	total := inr("10.00").Mul(qty)
	return domain.Order{
		UserID:          f.userID,
		TotalAmount:     total,
		DiscountAmount:  inr("0"),
		FinalAmount:     total,
		ShippingAddress: lo.ToPtr(gofakeit.Street()),
		Items: []domain.OrderItem{{
			ProductID:   f.productID,
			Quantity:    qty,
			UnitPrice:   inr("10.00"),
			TotalPrice:  total,
			PriceTierID: f.tierID,
		}},
	}
}
