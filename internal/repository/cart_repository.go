package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/orderflow/internal/db"
	"github.com/nikolayk812/orderflow/internal/domain"
	"github.com/nikolayk812/orderflow/internal/port"
	"github.com/samber/lo"
)

type cartRepository struct {
	q *db.Queries
}

func NewCart(pool *pgxpool.Pool) port.CartRepository {
	return &cartRepository{
		q: db.New(pool),
	}
}

func (r *cartRepository) UpsertItem(ctx context.Context, userID, productID uuid.UUID, qty int, expiresAt time.Time) (domain.CartEntry, error) {
	row, err := r.q.UpsertCartItem(ctx, db.UpsertCartItemParams{
		UserID:    userID,
		ProductID: productID,
		Quantity:  int32(qty),
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return domain.CartEntry{}, fmt.Errorf("q.UpsertCartItem: %w", translate(err))
	}

	return mapCartRowToDomain(row), nil
}

func (r *cartRepository) ReviveAbandoned(ctx context.Context, userID, productID uuid.UUID, qty int, expiresAt time.Time) (domain.CartEntry, bool, error) {
	row, err := r.q.ReviveAbandonedCartItem(ctx, db.ReviveAbandonedCartItemParams{
		Quantity:  int32(qty),
		ExpiresAt: expiresAt,
		UserID:    userID,
		ProductID: productID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.CartEntry{}, false, nil
		}
		return domain.CartEntry{}, false, fmt.Errorf("q.ReviveAbandonedCartItem: %w", translate(err))
	}

	return mapCartRowToDomain(row), true, nil
}

func (r *cartRepository) GetItem(ctx context.Context, entryID uuid.UUID) (domain.CartEntry, error) {
	row, err := r.q.GetCartItem(ctx, entryID)
	if err != nil {
		return domain.CartEntry{}, fmt.Errorf("q.GetCartItem: %w", translate(err))
	}

	return mapCartRowToDomain(row), nil
}

func (r *cartRepository) UpdateQuantity(ctx context.Context, entryID uuid.UUID, qty int, expiresAt time.Time) (domain.CartEntry, error) {
	row, err := r.q.UpdateCartItemQuantity(ctx, db.UpdateCartItemQuantityParams{
		Quantity:  int32(qty),
		ExpiresAt: expiresAt,
		ID:        entryID,
	})
	if err != nil {
		return domain.CartEntry{}, fmt.Errorf("q.UpdateCartItemQuantity: %w", translate(err))
	}

	return mapCartRowToDomain(row), nil
}

func (r *cartRepository) DeleteItem(ctx context.Context, entryID uuid.UUID) (bool, error) {
	rowsAffected, err := r.q.DeleteCartItem(ctx, entryID)
	if err != nil {
		return false, fmt.Errorf("q.DeleteCartItem: %w", err)
	}

	return rowsAffected > 0, nil
}

func (r *cartRepository) ListActive(ctx context.Context, userID uuid.UUID, now time.Time) ([]domain.CartEntry, error) {
	rows, err := r.q.ListActiveCartItems(ctx, db.ListActiveCartItemsParams{
		UserID: userID,
		Now:    now,
	})
	if err != nil {
		return nil, fmt.Errorf("q.ListActiveCartItems: %w", err)
	}

	return mapCartRowsToDomain(rows), nil
}

func (r *cartRepository) ListAbandoned(ctx context.Context, userID uuid.UUID) ([]domain.CartEntry, error) {
	rows, err := r.q.ListAbandonedCartItems(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("q.ListAbandonedCartItems: %w", err)
	}

	return mapCartRowsToDomain(rows), nil
}

func (r *cartRepository) ListAllAbandoned(ctx context.Context, page domain.Page) (domain.AbandonedCarts, error) {
	if err := page.Validate(domain.MaxAbandonedPageSize); err != nil {
		return domain.AbandonedCarts{}, fmt.Errorf("page.Validate: %w", err)
	}

	rows, err := r.q.ListAllAbandonedCartItems(ctx, db.ListAllAbandonedCartItemsParams{
		RowLimit:  int32(page.Size(domain.DefaultAbandonedPageSize)),
		RowOffset: int32(page.Offset),
	})
	if err != nil {
		return domain.AbandonedCarts{}, fmt.Errorf("q.ListAllAbandonedCartItems: %w", err)
	}

	total, err := r.q.CountAbandonedCartItems(ctx)
	if err != nil {
		return domain.AbandonedCarts{}, fmt.Errorf("q.CountAbandonedCartItems: %w", err)
	}

	return domain.AbandonedCarts{Entries: mapCartRowsToDomain(rows), Total: total}, nil
}

func (r *cartRepository) RestoreAbandoned(ctx context.Context, userID uuid.UUID, productID *uuid.UUID, expiresAt time.Time) ([]domain.CartEntry, error) {
	rows, err := r.q.RestoreAbandonedCartItems(ctx, db.RestoreAbandonedCartItemsParams{
		ExpiresAt: expiresAt,
		UserID:    userID,
		ProductID: productID,
	})
	if err != nil {
		return nil, fmt.Errorf("q.RestoreAbandonedCartItems: %w", translate(err))
	}

	return mapCartRowsToDomain(rows), nil
}

func (r *cartRepository) ClearActive(ctx context.Context, userID uuid.UUID) (int64, error) {
	n, err := r.q.ClearActiveCartItems(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("q.ClearActiveCartItems: %w", err)
	}

	return n, nil
}

func (r *cartRepository) ListExpired(ctx context.Context, now time.Time) ([]domain.CartEntry, error) {
	rows, err := r.q.ListExpiredCartItems(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("q.ListExpiredCartItems: %w", err)
	}

	return mapCartRowsToDomain(rows), nil
}

func (r *cartRepository) MarkAbandoned(ctx context.Context, entryIDs []uuid.UUID, notified bool, now time.Time) ([]domain.CartEntry, error) {
	if len(entryIDs) == 0 {
		return nil, nil
	}

	rows, err := r.q.MarkCartItemsAbandoned(ctx, db.MarkCartItemsAbandonedParams{
		Notified: notified,
		Ids:      entryIDs,
		Now:      now,
	})
	if err != nil {
		return nil, fmt.Errorf("q.MarkCartItemsAbandoned: %w", err)
	}

	return mapCartRowsToDomain(rows), nil
}

func (r *cartRepository) PurgeAbandoned(ctx context.Context, before time.Time) (int64, error) {
	n, err := r.q.PurgeAbandonedCartItems(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("q.PurgeAbandonedCartItems: %w", err)
	}

	return n, nil
}

func mapCartRowToDomain(row db.Cart) domain.CartEntry {
	return domain.CartEntry{
		ID:        row.ID,
		UserID:    row.UserID,
		ProductID: row.ProductID,
		Quantity:  int(row.Quantity),
		AddedAt:   row.AddedAt,
		ExpiresAt: row.ExpiresAt,
		Notified:  row.Notified,
		Abandoned: row.Abandoned,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

func mapCartRowsToDomain(rows []db.Cart) []domain.CartEntry {
	return lo.Map(rows, func(row db.Cart, _ int) domain.CartEntry {
		return mapCartRowToDomain(row)
	})
}
