package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/orderflow/internal/db"
	"github.com/nikolayk812/orderflow/internal/domain"
	"github.com/nikolayk812/orderflow/internal/port"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

type userRepository struct {
	q *db.Queries
}

func NewUser(pool *pgxpool.Pool) port.UserRepository {
	return &userRepository{q: db.New(pool)}
}

func (r *userRepository) GetUser(ctx context.Context, userID uuid.UUID) (domain.User, error) {
	row, err := r.q.GetUser(ctx, userID)
	if err != nil {
		return domain.User{}, fmt.Errorf("q.GetUser: %w", translate(err))
	}

	return mapUserRowToDomain(row)
}

func (r *userRepository) InsertUser(ctx context.Context, user domain.User) (uuid.UUID, error) {
	id, err := r.q.InsertUser(ctx, db.InsertUserParams{
		Email:             user.Email,
		Name:              user.Name,
		TotalPurchases:    user.TotalPurchases.Amount,
		PurchasesCurrency: user.TotalPurchases.Currency.String(),
		DiscountEligible:  user.DiscountEligible,
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("q.InsertUser: %w", translate(err))
	}

	return id, nil
}

func (r *userRepository) CreditPurchases(ctx context.Context, userID uuid.UUID, amount domain.Money, threshold decimal.Decimal) (domain.User, error) {
	row, err := r.q.CreditPurchases(ctx, db.CreditPurchasesParams{
		Amount:    amount.Amount,
		Threshold: threshold,
		ID:        userID,
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("q.CreditPurchases: %w", translate(err))
	}

	return mapUserRowToDomain(row)
}

func mapUserRowToDomain(row db.User) (domain.User, error) {
	parsedCurrency, err := currency.ParseISO(row.PurchasesCurrency)
	if err != nil {
		return domain.User{}, fmt.Errorf("currency[%s] is not valid: %w", row.PurchasesCurrency, err)
	}

	return domain.User{
		ID:               row.ID,
		Email:            row.Email,
		Name:             row.Name,
		TotalPurchases:   domain.NewMoney(row.TotalPurchases, parsedCurrency),
		DiscountEligible: row.DiscountEligible,
	}, nil
}
