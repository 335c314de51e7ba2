package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/nikolayk812/orderflow/internal/domain"
	"github.com/shopspring/decimal"
)

type productRepository struct {
	s *Store
}

func (r *productRepository) GetProduct(_ context.Context, productID uuid.UUID) (domain.Product, error) {
	var p domain.Product
	err := r.s.run(func(d *dataset) error {
		found, ok := d.products[productID]
		if !ok {
			return fmt.Errorf("product[%s]: %w", productID, domain.ErrNotFound)
		}
		p = found
		return nil
	})
	return p, err
}

func (r *productRepository) InsertProduct(_ context.Context, product domain.Product) (uuid.UUID, error) {
	if product.CurrentStock < 0 {
		return uuid.Nil, fmt.Errorf("negative stock: %w", domain.ErrValidation)
	}

	product.ID = uuid.New()
	product.CreatedAt = r.s.clock()
	product.UpdatedAt = product.CreatedAt

	err := r.s.run(func(d *dataset) error {
		d.products[product.ID] = product
		return nil
	})
	return product.ID, err
}

func (r *productRepository) DecrementStock(_ context.Context, productID uuid.UUID, qty int) error {
	if qty < 1 {
		return fmt.Errorf("quantity %d: %w", qty, domain.ErrValidation)
	}

	return r.s.run(func(d *dataset) error {
		p, ok := d.products[productID]
		if !ok || !p.IsActive || p.CurrentStock < qty {
			return fmt.Errorf("product[%s]: %w", productID, domain.ErrOutOfStock)
		}

		p.CurrentStock -= qty
		p.TotalSold += qty
		p.UpdatedAt = r.s.clock()
		d.products[productID] = p
		return nil
	})
}

type priceTierRepository struct {
	s *Store
}

func (r *priceTierRepository) ListActive(_ context.Context, productID uuid.UUID) ([]domain.PriceTier, error) {
	var tiers []domain.PriceTier
	err := r.s.run(func(d *dataset) error {
		for _, t := range d.tiers {
			if t.ProductID == productID && t.IsActive {
				tiers = append(tiers, t)
			}
		}
		return nil
	})

	sort.Slice(tiers, func(i, j int) bool {
		if tiers[i].BatchStart != tiers[j].BatchStart {
			return tiers[i].BatchStart < tiers[j].BatchStart
		}
		return tiers[i].CreatedAt.Before(tiers[j].CreatedAt)
	})

	return tiers, err
}

func (r *priceTierRepository) InsertPriceTier(_ context.Context, tier domain.PriceTier) (uuid.UUID, error) {
	if err := tier.Validate(); err != nil {
		return uuid.Nil, fmt.Errorf("tier.Validate: %w", err)
	}

	tier.ID = uuid.New()
	tier.CreatedAt = r.s.clock()

	err := r.s.run(func(d *dataset) error {
		if _, ok := d.products[tier.ProductID]; !ok {
			return fmt.Errorf("product[%s]: %w", tier.ProductID, domain.ErrNotFound)
		}
		d.tiers[tier.ID] = tier
		return nil
	})
	return tier.ID, err
}

type userRepository struct {
	s *Store
}

func (r *userRepository) GetUser(_ context.Context, userID uuid.UUID) (domain.User, error) {
	var u domain.User
	err := r.s.run(func(d *dataset) error {
		found, ok := d.users[userID]
		if !ok {
			return fmt.Errorf("user[%s]: %w", userID, domain.ErrNotFound)
		}
		u = found
		return nil
	})
	return u, err
}

func (r *userRepository) InsertUser(_ context.Context, user domain.User) (uuid.UUID, error) {
	user.ID = uuid.New()

	err := r.s.run(func(d *dataset) error {
		for _, existing := range d.users {
			if existing.Email == user.Email {
				return fmt.Errorf("email %s taken: %w", user.Email, domain.ErrConflict)
			}
		}
		d.users[user.ID] = user
		return nil
	})
	return user.ID, err
}

func (r *userRepository) CreditPurchases(_ context.Context, userID uuid.UUID, amount domain.Money, threshold decimal.Decimal) (domain.User, error) {
	var u domain.User
	err := r.s.run(func(d *dataset) error {
		found, ok := d.users[userID]
		if !ok {
			return fmt.Errorf("user[%s]: %w", userID, domain.ErrNotFound)
		}

		found.TotalPurchases.Amount = found.TotalPurchases.Amount.Add(amount.Amount)
		if found.TotalPurchases.Amount.GreaterThan(threshold) {
			found.DiscountEligible = true
		}
		d.users[userID] = found
		u = found
		return nil
	})
	return u, err
}
