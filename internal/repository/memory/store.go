// Package memory is an in-process port.Store used by tests and the memory storage driver.
// A single mutex serialises every operation; WithTx holds it for the whole callback and
// works on a copy that replaces the live data only on success.
package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/orderflow/internal/domain"
	"github.com/nikolayk812/orderflow/internal/port"
)

type dataset struct {
	users    map[uuid.UUID]domain.User
	products map[uuid.UUID]domain.Product
	tiers    map[uuid.UUID]domain.PriceTier
	carts    map[uuid.UUID]domain.CartEntry
	orders   map[uuid.UUID]domain.Order
	refunds  map[uuid.UUID]domain.Refund
}

func newDataset() *dataset {
	return &dataset{
		users:    map[uuid.UUID]domain.User{},
		products: map[uuid.UUID]domain.Product{},
		tiers:    map[uuid.UUID]domain.PriceTier{},
		carts:    map[uuid.UUID]domain.CartEntry{},
		orders:   map[uuid.UUID]domain.Order{},
		refunds:  map[uuid.UUID]domain.Refund{},
	}
}

// clone copies the maps. Values are copied by assignment; order items are never mutated in place.
func (d *dataset) clone() *dataset {
	return &dataset{
		users:    maps.Clone(d.users),
		products: maps.Clone(d.products),
		tiers:    maps.Clone(d.tiers),
		carts:    maps.Clone(d.carts),
		orders:   maps.Clone(d.orders),
		refunds:  maps.Clone(d.refunds),
	}
}

type Store struct {
	mu    sync.Mutex
	data  *dataset
	clock func() time.Time

	// tx is set on the view handed to a WithTx callback
	tx *dataset
}

type Option func(*Store)

func WithClock(clock func() time.Time) Option {
	return func(s *Store) {
		s.clock = clock
	}
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		data:  newDataset(),
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// run executes fn against the transaction copy when inside WithTx, otherwise under the lock.
func (s *Store) run(fn func(d *dataset) error) error {
	if s.tx != nil {
		return fn(s.tx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return fn(s.data)
}

func (s *Store) WithTx(ctx context.Context, fn func(tx port.Store) error) error {
	if s.tx != nil {
		return fn(s)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	view := &Store{clock: s.clock, tx: s.data.clone()}
	if err := fn(view); err != nil {
		return err
	}

	s.data = view.tx
	return nil
}

func (s *Store) Carts() port.CartRepository {
	return &cartRepository{s: s}
}

func (s *Store) Products() port.ProductRepository {
	return &productRepository{s: s}
}

func (s *Store) Prices() port.PriceTierRepository {
	return &priceTierRepository{s: s}
}

func (s *Store) Orders() port.OrderRepository {
	return &orderRepository{s: s}
}

func (s *Store) Users() port.UserRepository {
	return &userRepository{s: s}
}
