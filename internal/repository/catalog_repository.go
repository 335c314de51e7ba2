package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/orderflow/internal/db"
	"github.com/nikolayk812/orderflow/internal/domain"
	"github.com/nikolayk812/orderflow/internal/port"
	"github.com/samber/lo"
	"golang.org/x/text/currency"
)

type productRepository struct {
	q *db.Queries
}

func NewProduct(pool *pgxpool.Pool) port.ProductRepository {
	return &productRepository{q: db.New(pool)}
}

func (r *productRepository) GetProduct(ctx context.Context, productID uuid.UUID) (domain.Product, error) {
	row, err := r.q.GetProduct(ctx, productID)
	if err != nil {
		return domain.Product{}, fmt.Errorf("q.GetProduct: %w", translate(err))
	}

	return domain.Product{
		ID:           row.ID,
		Name:         row.Name,
		IsActive:     row.IsActive,
		CurrentStock: int(row.CurrentStock),
		TotalSold:    int(row.TotalSold),
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}, nil
}

func (r *productRepository) InsertProduct(ctx context.Context, product domain.Product) (uuid.UUID, error) {
	id, err := r.q.InsertProduct(ctx, db.InsertProductParams{
		Name:         product.Name,
		IsActive:     product.IsActive,
		CurrentStock: int32(product.CurrentStock),
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("q.InsertProduct: %w", translate(err))
	}

	return id, nil
}

func (r *productRepository) DecrementStock(ctx context.Context, productID uuid.UUID, qty int) error {
	if qty < 1 {
		return fmt.Errorf("quantity %d: %w", qty, domain.ErrValidation)
	}

	rowsAffected, err := r.q.DecrementStock(ctx, db.DecrementStockParams{
		Quantity: int32(qty),
		ID:       productID,
	})
	if err != nil {
		return fmt.Errorf("q.DecrementStock: %w", translate(err))
	}

	if rowsAffected == 0 {
		return fmt.Errorf("q.DecrementStock[%s]: %w", productID, domain.ErrOutOfStock)
	}

	return nil
}

type priceTierRepository struct {
	q *db.Queries
}

func NewPriceTier(pool *pgxpool.Pool) port.PriceTierRepository {
	return &priceTierRepository{q: db.New(pool)}
}

func (r *priceTierRepository) ListActive(ctx context.Context, productID uuid.UUID) ([]domain.PriceTier, error) {
	rows, err := r.q.ListActivePriceTiers(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("q.ListActivePriceTiers: %w", err)
	}

	tiers := make([]domain.PriceTier, 0, len(rows))
	for _, row := range rows {
		tier, err := mapPriceTierRowToDomain(row)
		if err != nil {
			return nil, fmt.Errorf("mapPriceTierRowToDomain: %w", err)
		}
		tiers = append(tiers, tier)
	}

	return tiers, nil
}

func (r *priceTierRepository) InsertPriceTier(ctx context.Context, tier domain.PriceTier) (uuid.UUID, error) {
	if err := tier.Validate(); err != nil {
		return uuid.Nil, fmt.Errorf("tier.Validate: %w", err)
	}

	var batchEnd *int32
	if tier.BatchEnd != nil {
		batchEnd = lo.ToPtr(int32(*tier.BatchEnd))
	}

	id, err := r.q.InsertPriceTier(ctx, db.InsertPriceTierParams{
		ProductID:   tier.ProductID,
		BatchStart:  int32(tier.BatchStart),
		BatchEnd:    batchEnd,
		PriceAmount: tier.Price.Amount,
		CostAmount:  tier.CostPrice.Amount,
		Currency:    tier.Price.Currency.String(),
		IsActive:    tier.IsActive,
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("q.InsertPriceTier: %w", translate(err))
	}

	return id, nil
}

func mapPriceTierRowToDomain(row db.PriceTier) (domain.PriceTier, error) {
	parsedCurrency, err := currency.ParseISO(row.Currency)
	if err != nil {
		return domain.PriceTier{}, fmt.Errorf("currency[%s] is not valid: %w", row.Currency, err)
	}

	var batchEnd *int
	if row.BatchEnd != nil {
		batchEnd = lo.ToPtr(int(*row.BatchEnd))
	}

	return domain.PriceTier{
		ID:         row.ID,
		ProductID:  row.ProductID,
		BatchStart: int(row.BatchStart),
		BatchEnd:   batchEnd,
		Price:      domain.NewMoney(row.PriceAmount, parsedCurrency),
		CostPrice:  domain.NewMoney(row.CostAmount, parsedCurrency),
		IsActive:   row.IsActive,
		CreatedAt:  row.CreatedAt,
	}, nil
}
