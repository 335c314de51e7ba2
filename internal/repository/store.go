package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/orderflow/internal/db"
	"github.com/nikolayk812/orderflow/internal/port"
)

// Store is the Postgres implementation of port.Store.
type Store struct {
	dbtx db.DBTX
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{dbtx: pool}
}

func (s *Store) Carts() port.CartRepository {
	return &cartRepository{q: db.New(s.dbtx)}
}

func (s *Store) Products() port.ProductRepository {
	return &productRepository{q: db.New(s.dbtx)}
}

func (s *Store) Prices() port.PriceTierRepository {
	return &priceTierRepository{q: db.New(s.dbtx)}
}

func (s *Store) Orders() port.OrderRepository {
	return &orderRepository{q: db.New(s.dbtx), dbtx: s.dbtx}
}

func (s *Store) Users() port.UserRepository {
	return &userRepository{q: db.New(s.dbtx)}
}

func (s *Store) WithTx(ctx context.Context, fn func(tx port.Store) error) error {
	_, err := inTx(ctx, s.dbtx, func(tx pgx.Tx) (struct{}, error) {
		return struct{}{}, fn(&Store{dbtx: tx})
	})
	return err
}
