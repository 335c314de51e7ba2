package port

import "context"

// Store groups the repositories. Repositories obtained from the Store passed to WithTx's
// callback share one transaction, committed when the callback returns nil.
type Store interface {
	Carts() CartRepository
	Products() ProductRepository
	Prices() PriceTierRepository
	Orders() OrderRepository
	Users() UserRepository

	WithTx(ctx context.Context, fn func(tx Store) error) error
}
